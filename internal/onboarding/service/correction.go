package service

import (
	"context"
	"fmt"
	"strings"

	"bankassist/internal/onboarding/models"
	"bankassist/pkg/platform/audit"
)

// stage describes one confirmation stage: which namespace it reviews, how to
// render it, and what happens when the user confirms.
type stage struct {
	name    string
	subset  func(*models.Fields) map[string]string
	apply   func(*models.Fields, map[string]string)
	display []displayField
	confirm func(s *Service, ctx context.Context, sess *models.Session) (*models.Response, error)
}

// displayField maps a patch key to the label shown in echoes and payloads.
type displayField struct {
	label string
	key   string
}

var identityStage = stage{
	name:   "identity",
	subset: func(f *models.Fields) map[string]string { return f.IdentitySubset() },
	apply:  (*models.Fields).ApplyIdentityPatch,
	display: []displayField{
		{"Name", models.FieldName},
		{"DOB", models.FieldDOB},
		{"Gender", models.FieldGender},
		{"ID Number", models.FieldNationalID},
	},
	confirm: func(s *Service, ctx context.Context, sess *models.Session) (*models.Response, error) {
		sess.State = models.StateAwaitingIDBack
		if err := s.sessions.Save(ctx, sess); err != nil {
			return nil, err
		}
		return models.ActionRequired(msgIDFrontConfirmed, models.ActionUploadIdentity), nil
	},
}

var addressStage = stage{
	name:   "address",
	subset: func(f *models.Fields) map[string]string { return f.AddressSubset() },
	apply:  (*models.Fields).ApplyAddressPatch,
	display: []displayField{
		{"Address", models.FieldAddress},
		{"City", models.FieldCity},
		{"District", models.FieldDistrict},
		{"State", models.FieldRegion},
		{"Pincode", models.FieldPostalCode},
	},
	confirm: func(s *Service, ctx context.Context, sess *models.Session) (*models.Response, error) {
		sess.State = models.StateAwaitingTaxDoc
		if err := s.sessions.Save(ctx, sess); err != nil {
			return nil, err
		}
		return models.ActionRequired(msgIDBackConfirmed, models.ActionUploadTax), nil
	},
}

var taxStage = stage{
	name:   "tax",
	subset: func(f *models.Fields) map[string]string { return f.TaxSubset() },
	apply:  (*models.Fields).ApplyTaxPatch,
	display: []displayField{
		{"Tax Number", models.FieldTaxNumber},
		{"Name", models.FieldName},
		{"Father's Name", models.FieldFatherName},
		{"DOB", models.FieldDOB},
	},
	confirm: func(s *Service, ctx context.Context, sess *models.Session) (*models.Response, error) {
		// Cross-validation is advisory: mismatches are surfaced and audited
		// but never block the transition to the live-photo stage.
		result := CrossValidate(
			sess.Fields.Identity.FullName(), sess.Fields.Identity.DOB,
			sess.Fields.Tax.HolderName, sess.Fields.Tax.DOB,
		)
		if result.Outcome != CrossMatched {
			s.logger.WarnContext(ctx, "cross-validation mismatch",
				"user_id", sess.UserID,
				"identity_value", result.IdentityVal,
				"tax_value", result.TaxVal,
			)
			s.audit.Publish(ctx, audit.Event{
				UserID: sess.UserID,
				Action: audit.ActionCrossValidationMismatch,
				Detail: map[string]string{
					"identity_value": result.IdentityVal,
					"tax_value":      result.TaxVal,
				},
			})
		}

		sess.State = models.StateAwaitingLivePhoto
		if err := s.sessions.Save(ctx, sess); err != nil {
			return nil, err
		}
		text := "Details confirmed.\n\n" + result.Message() + "\n\n" + msgAwaitingLive
		return models.ActionRequired(text, models.ActionUploadLivePhoto), nil
	},
}

// confirmOrCorrect handles free text inside a confirmation stage: the confirm
// token advances the flow, anything else goes through the correction
// interpreter and re-echoes the full namespace for another round.
func (s *Service) confirmOrCorrect(ctx context.Context, sess *models.Session, text string, st stage) (*models.Response, error) {
	if strings.EqualFold(strings.TrimSpace(text), confirmToken) {
		return st.confirm(s, ctx, sess)
	}

	patch, err := s.interpretCorrection(ctx, st.subset(&sess.Fields), text)
	if err != nil {
		s.logger.ErrorContext(ctx, "correction interpretation failed",
			"error", err, "user_id", sess.UserID, "stage", st.name)
		return models.Error(msgTransientFailure), nil
	}
	if len(patch) == 0 {
		return models.ExtractionSuccess(
			st.echo(&sess.Fields, "No changes detected. Please review:"),
			st.payload(&sess.Fields),
		), nil
	}

	st.apply(&sess.Fields, patch)
	if err := s.sessions.Save(ctx, sess); err != nil {
		return nil, err
	}
	return models.ExtractionSuccess(
		st.echo(&sess.Fields, "Updated details:"),
		st.payload(&sess.Fields),
	), nil
}

// echo renders the full namespace as labeled lines plus the confirm prompt.
func (st stage) echo(f *models.Fields, heading string) string {
	subset := st.subset(f)
	var b strings.Builder
	b.WriteString(heading)
	b.WriteString("\n")
	for _, d := range st.display {
		fmt.Fprintf(&b, "\n%s: %s", d.label, subset[d.key])
	}
	b.WriteString("\n\nIs everything correct? Type 'correct' to proceed, or tell me what to change.")
	return b.String()
}

// payload is the machine-readable mirror of echo.
func (st stage) payload(f *models.Fields) map[string]string {
	subset := st.subset(f)
	out := make(map[string]string, len(st.display))
	for _, d := range st.display {
		out[d.label] = subset[d.key]
	}
	return out
}
