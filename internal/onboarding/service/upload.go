package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"bankassist/internal/onboarding/models"
	"bankassist/pkg/platform/audit"
	"bankassist/pkg/platform/sentinel"
)

// HandleUpload processes one uploaded document image. An upload is only
// consumed by the exact state that asked for it; anything else is rejected
// without touching the session.
func (s *Service) HandleUpload(ctx context.Context, userID uuid.UUID, kind models.DocumentKind, data []byte, contentType string) (*models.Response, error) {
	ctx, span := s.tracer.Start(ctx, "onboarding.upload")
	defer span.End()
	span.SetAttributes(attribute.String("onboarding.document_kind", string(kind)))

	unlock := s.locks.Lock(userID)
	defer unlock()

	sess, err := s.sessions.GetOrCreate(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	span.SetAttributes(attribute.String("onboarding.state", string(sess.State)))

	switch kind {
	case models.KindIdentity:
		switch sess.State {
		case models.StateAwaitingIDFront:
			return s.handleIDFront(ctx, sess, data, contentType)
		case models.StateAwaitingIDBack:
			return s.handleIDBack(ctx, sess, data, contentType)
		default:
			s.countUpload(kind, "rejected_state")
			return models.Error(msgNotExpectingIdentity), nil
		}

	case models.KindTax:
		if sess.State != models.StateAwaitingTaxDoc {
			s.countUpload(kind, "rejected_state")
			return models.Error(msgNotExpectingTax), nil
		}
		return s.handleTaxDoc(ctx, sess, data, contentType)

	case models.KindLivePhoto:
		if sess.State != models.StateAwaitingLivePhoto {
			s.countUpload(kind, "rejected_state")
			return models.Error(msgNotExpectingLive), nil
		}
		return s.handleLivePhoto(ctx, sess, data, contentType)
	}

	return models.Error("Unsupported document type."), nil
}

func (s *Service) handleIDFront(ctx context.Context, sess *models.Session, data []byte, contentType string) (*models.Response, error) {
	record, err := s.extract(ctx, models.ExtractIDFront, data)
	if err != nil {
		s.logger.ErrorContext(ctx, "id front extraction failed", "error", err, "user_id", sess.UserID)
		s.countExtractionFailure(models.ExtractIDFront, "transient")
		s.countUpload(models.KindIdentity, "transient_failure")
		return models.Error(msgTransientFailure), nil
	}
	if !record.Valid {
		s.countExtractionFailure(models.ExtractIDFront, "not_document")
		s.countUpload(models.KindIdentity, "rejected_quality")
		return models.Error(msgNotIDFront), nil
	}
	if missing := record.MissingCritical(); len(missing) > 0 {
		s.logger.InfoContext(ctx, "id front missing critical fields",
			"user_id", sess.UserID, "missing", missing)
		s.countExtractionFailure(models.ExtractIDFront, "missing_critical")
		s.countUpload(models.KindIdentity, "rejected_quality")
		return models.Error(msgMissingIDFields), nil
	}

	nationalID := record.Fields[models.FieldNationalID]
	existing, err := s.applications.FindByNationalID(ctx, nationalID)
	if err != nil && !errors.Is(err, sentinel.ErrNotFound) {
		s.logger.ErrorContext(ctx, "duplicate check failed", "error", err, "user_id", sess.UserID)
		s.countUpload(models.KindIdentity, "transient_failure")
		return models.Error(msgTransientFailure), nil
	}
	if existing != nil {
		// Hard stop. The session is torn down so a retried upload starts
		// clean instead of resuming mid-flow.
		sess.Reset()
		if err := s.sessions.Save(ctx, sess); err != nil {
			return nil, err
		}
		s.countUpload(models.KindIdentity, "duplicate")
		s.audit.Publish(ctx, audit.Event{
			UserID: sess.UserID,
			Action: audit.ActionDuplicateBlocked,
			Detail: map[string]string{"application_no": existing.ApplicationNo},
		})
		text := fmt.Sprintf(
			"⚠️ An application already exists for this identity card.\n\nApplication No: %s\nStatus: %s\n\nA duplicate application cannot be submitted.",
			existing.ApplicationNo, existing.Status,
		)
		return models.Error(text), nil
	}

	url, err := s.putObject(ctx, objectKey(sess.UserID, "id_front"), data, contentType)
	if err != nil {
		s.logger.ErrorContext(ctx, "store id front failed", "error", err, "user_id", sess.UserID)
		s.countUpload(models.KindIdentity, "storage_failure")
		return models.Error(msgStorageFailure), nil
	}

	first, last := models.SplitName(record.Fields[models.FieldName])
	gender := record.Fields[models.FieldGender]
	if gender == "" {
		gender = "Other"
	}
	sess.Fields.Identity = models.IdentityFields{
		FirstName:  first,
		LastName:   last,
		DOB:        record.Fields[models.FieldDOB],
		Gender:     gender,
		NationalID: nationalID,
	}
	sess.Fields.FrontImageURL = url
	// Retained for the reference-face isolation at the live-photo step.
	sess.Fields.FrontImage = data
	sess.State = models.StateConfirmingIDFront
	if err := s.sessions.Save(ctx, sess); err != nil {
		return nil, err
	}

	s.countUpload(models.KindIdentity, "accepted")
	return models.ExtractionSuccess(
		identityStage.echo(&sess.Fields, "Identity card front scanned. Please review:"),
		identityStage.payload(&sess.Fields),
	), nil
}

func (s *Service) handleIDBack(ctx context.Context, sess *models.Session, data []byte, contentType string) (*models.Response, error) {
	record, err := s.extract(ctx, models.ExtractIDBack, data)
	if err != nil {
		s.logger.ErrorContext(ctx, "id back extraction failed", "error", err, "user_id", sess.UserID)
		s.countExtractionFailure(models.ExtractIDBack, "transient")
		s.countUpload(models.KindIdentity, "transient_failure")
		return models.Error(msgTransientFailure), nil
	}
	if !record.Valid {
		s.countExtractionFailure(models.ExtractIDBack, "not_document")
		s.countUpload(models.KindIdentity, "rejected_quality")
		return models.Error(msgNotIDBack), nil
	}

	url, err := s.putObject(ctx, objectKey(sess.UserID, "id_back"), data, contentType)
	if err != nil {
		s.logger.ErrorContext(ctx, "store id back failed", "error", err, "user_id", sess.UserID)
		s.countUpload(models.KindIdentity, "storage_failure")
		return models.Error(msgStorageFailure), nil
	}

	// The back side has no critical fields; unreadable sub-fields get
	// placeholders so the flow never stalls on partial address extraction.
	sess.Fields.Address = models.AddressFields{
		Line:       orDefault(record.Fields[models.FieldAddress], "Unknown Address"),
		City:       orDefault(record.Fields[models.FieldCity], "Unknown City"),
		District:   orDefault(record.Fields[models.FieldDistrict], "Unknown District"),
		Region:     orDefault(record.Fields[models.FieldRegion], "Unknown State"),
		PostalCode: orDefault(record.Fields[models.FieldPostalCode], "000000"),
	}
	sess.Fields.BackImageURL = url
	sess.State = models.StateConfirmingIDBack
	if err := s.sessions.Save(ctx, sess); err != nil {
		return nil, err
	}

	s.countUpload(models.KindIdentity, "accepted")
	return models.ExtractionSuccess(
		addressStage.echo(&sess.Fields, "Identity card back scanned. Please review:"),
		addressStage.payload(&sess.Fields),
	), nil
}

func (s *Service) handleTaxDoc(ctx context.Context, sess *models.Session, data []byte, contentType string) (*models.Response, error) {
	record, err := s.extract(ctx, models.ExtractTaxCard, data)
	if err != nil {
		s.logger.ErrorContext(ctx, "tax card extraction failed", "error", err, "user_id", sess.UserID)
		s.countExtractionFailure(models.ExtractTaxCard, "transient")
		s.countUpload(models.KindTax, "transient_failure")
		return models.Error(msgTransientFailure), nil
	}
	if !record.Valid {
		s.countExtractionFailure(models.ExtractTaxCard, "not_document")
		s.countUpload(models.KindTax, "rejected_quality")
		return models.Error(msgNotTaxCard), nil
	}
	if missing := record.MissingCritical(); len(missing) > 0 {
		s.logger.InfoContext(ctx, "tax card missing critical fields",
			"user_id", sess.UserID, "missing", missing)
		s.countExtractionFailure(models.ExtractTaxCard, "missing_critical")
		s.countUpload(models.KindTax, "rejected_quality")
		return models.Error(msgMissingTaxFields), nil
	}

	url, err := s.putObject(ctx, objectKey(sess.UserID, "tax_card"), data, contentType)
	if err != nil {
		s.logger.ErrorContext(ctx, "store tax card failed", "error", err, "user_id", sess.UserID)
		s.countUpload(models.KindTax, "storage_failure")
		return models.Error(msgStorageFailure), nil
	}

	sess.Fields.Tax = models.TaxFields{
		Number:     record.Fields[models.FieldTaxNumber],
		HolderName: record.Fields[models.FieldName],
		FatherName: record.Fields[models.FieldFatherName],
		DOB:        record.Fields[models.FieldDOB],
	}
	sess.Fields.TaxImageURL = url
	sess.State = models.StateConfirmingTaxDoc
	if err := s.sessions.Save(ctx, sess); err != nil {
		return nil, err
	}

	s.countUpload(models.KindTax, "accepted")
	return models.ExtractionSuccess(
		taxStage.echo(&sess.Fields, "Tax card scanned. Please review:"),
		taxStage.payload(&sess.Fields),
	), nil
}

func objectKey(userID uuid.UUID, label string) string {
	return fmt.Sprintf("%s/%s.jpg", userID, label)
}

func orDefault(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}
