package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"bankassist/internal/onboarding/models"
	"bankassist/pkg/platform/audit"
	"bankassist/pkg/platform/sentinel"
)

// handleLivePhoto runs biometric verification and, on any terminal outcome,
// assembles and commits the pending application. The isolated reference face
// and the live photo are step-scoped; only the session's retained front image
// survives across retries, and it is cleared on every terminal path.
func (s *Service) handleLivePhoto(ctx context.Context, sess *models.Session, data []byte, contentType string) (*models.Response, error) {
	if s.metrics != nil {
		s.metrics.FaceMatchAttempts.Inc()
	}

	if len(sess.Fields.FrontImage) == 0 {
		sess.Reset()
		if err := s.sessions.Save(ctx, sess); err != nil {
			return nil, err
		}
		s.countUpload(models.KindLivePhoto, "session_corrupt")
		return models.Error(msgSessionCorrupt), nil
	}

	referenceFace, err := s.isolateFace(ctx, sess.Fields.FrontImage)
	if errors.Is(err, sentinel.ErrNotFound) {
		// The accepted identity card has no usable face. Retrying the live
		// photo cannot fix that, so the flow restarts from scratch.
		sess.Reset()
		if err := s.sessions.Save(ctx, sess); err != nil {
			return nil, err
		}
		s.countUpload(models.KindLivePhoto, "no_reference_face")
		return models.Error(msgNoFaceInDocument), nil
	}
	if err != nil {
		s.logger.ErrorContext(ctx, "face isolation failed", "error", err, "user_id", sess.UserID)
		s.countUpload(models.KindLivePhoto, "transient_failure")
		return models.Error(msgTransientFailure), nil
	}

	matched, err := s.matchFaces(ctx, data, referenceFace)
	if err != nil {
		s.logger.ErrorContext(ctx, "face match failed", "error", err, "user_id", sess.UserID)
		s.countUpload(models.KindLivePhoto, "transient_failure")
		return models.Error(msgTransientFailure), nil
	}

	if !matched {
		if s.metrics != nil {
			s.metrics.FaceMatchFailures.Inc()
		}
		sess.Fields.RetryCount++
		s.audit.Publish(ctx, audit.Event{
			UserID: sess.UserID,
			Action: audit.ActionFaceVerificationFailed,
			Detail: map[string]string{"attempt": strconv.Itoa(sess.Fields.RetryCount)},
		})
		if sess.Fields.RetryCount < maxFaceRetries {
			if err := s.sessions.Save(ctx, sess); err != nil {
				return nil, err
			}
			s.countUpload(models.KindLivePhoto, "mismatch")
			text := fmt.Sprintf(
				"Face verification failed. You have %d attempt(s) remaining. Please upload a clearer photo of yourself.",
				maxFaceRetries-sess.Fields.RetryCount,
			)
			return models.ActionRequired(text, models.ActionUploadLivePhoto), nil
		}
	}

	// Terminal outcome: either matched, or the retry cap is exhausted and the
	// application goes through unverified for branch-based manual KYC.
	url, err := s.putObject(ctx, objectKey(sess.UserID, "live_photo"), data, contentType)
	if err != nil {
		s.logger.ErrorContext(ctx, "store live photo failed", "error", err, "user_id", sess.UserID)
		if saveErr := s.sessions.Save(ctx, sess); saveErr != nil {
			return nil, saveErr
		}
		s.countUpload(models.KindLivePhoto, "storage_failure")
		return models.Error(msgStorageFailure), nil
	}
	sess.Fields.LivePhotoImageURL = url

	app, assembleErr := assembleApplication(sess, matched)

	sess.Fields.FrontImage = nil
	sess.State = models.StateCompleted

	var commitErr error
	if assembleErr != nil {
		commitErr = assembleErr
	} else {
		commitErr = s.applications.Create(ctx, app)
	}
	if err := s.sessions.Save(ctx, sess); err != nil {
		return nil, err
	}

	if commitErr != nil {
		s.logger.ErrorContext(ctx, "application commit failed", "error", commitErr, "user_id", sess.UserID)
		if s.metrics != nil {
			s.metrics.CommitFailures.Inc()
		}
		s.countUpload(models.KindLivePhoto, "commit_failure")
		s.audit.Publish(ctx, audit.Event{
			UserID: sess.UserID,
			Action: audit.ActionCommitFailed,
			Detail: map[string]string{"error": commitErr.Error()},
		})
		return models.Error(msgCommitFailed), nil
	}

	if s.metrics != nil {
		s.metrics.ApplicationsSubmitted.WithLabelValues(strconv.FormatBool(matched)).Inc()
	}
	s.countUpload(models.KindLivePhoto, "accepted")
	s.audit.Publish(ctx, audit.Event{
		UserID: sess.UserID,
		Action: audit.ActionApplicationSubmitted,
		Detail: map[string]string{
			"application_no": app.ApplicationNo,
			"kyc_verified":   strconv.FormatBool(matched),
		},
	})

	if matched {
		return models.Text(fmt.Sprintf("%s\n\nYour application number is %s.", msgVerified, app.ApplicationNo)), nil
	}
	return models.Text(fmt.Sprintf("%s\n\nYour application number is %s.", msgManualKYC, app.ApplicationNo)), nil
}

// assembleApplication builds the durable record from the confirmed session
// fields. Extraction and correction keep dates textual; parsing happens only
// here, at the commit boundary.
func assembleApplication(sess *models.Session, verified bool) (*models.PendingApplication, error) {
	dob, err := models.ParseDOB(sess.Fields.Identity.DOB)
	if err != nil {
		return nil, fmt.Errorf("parse date of birth %q: %w", sess.Fields.Identity.DOB, err)
	}

	return &models.PendingApplication{
		ApplicationNo: models.NewApplicationNo(),
		UserID:        sess.UserID,

		FirstName:  sess.Fields.Identity.FirstName,
		LastName:   sess.Fields.Identity.LastName,
		FatherName: sess.Fields.Tax.FatherName,
		DOB:        dob,
		Gender:     sess.Fields.Identity.Gender,

		AddressLine: sess.Fields.Address.Line,
		City:        sess.Fields.Address.City,
		District:    sess.Fields.Address.District,
		Region:      sess.Fields.Address.Region,
		PostalCode:  sess.Fields.Address.PostalCode,
		Country:     "India",

		NationalID: sess.Fields.Identity.NationalID,
		TaxID:      sess.Fields.Tax.Number,

		FrontImageURL:     sess.Fields.FrontImageURL,
		BackImageURL:      sess.Fields.BackImageURL,
		TaxImageURL:       sess.Fields.TaxImageURL,
		LivePhotoImageURL: sess.Fields.LivePhotoImageURL,

		KYCVerified: verified,
		Status:      models.StatusPending,
	}, nil
}
