package service_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"bankassist/internal/account"
	"bankassist/internal/onboarding/models"
	"bankassist/internal/onboarding/service"
	"bankassist/internal/onboarding/service/mocks"
	"bankassist/internal/onboarding/session"
	"bankassist/pkg/platform/sentinel"
)

type ServiceSuite struct {
	suite.Suite

	ctrl         *gomock.Controller
	sessions     *session.InMemoryStore
	extraction   *mocks.MockExtractionGateway
	biometric    *mocks.MockBiometricGateway
	objects      *mocks.MockObjectStore
	applications *mocks.MockApplicationStore
	balances     *account.InMemoryReader

	svc    *service.Service
	userID uuid.UUID
	ctx    context.Context
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.sessions = session.NewInMemoryStore()
	s.extraction = mocks.NewMockExtractionGateway(s.ctrl)
	s.biometric = mocks.NewMockBiometricGateway(s.ctrl)
	s.objects = mocks.NewMockObjectStore(s.ctrl)
	s.applications = mocks.NewMockApplicationStore(s.ctrl)
	s.balances = account.NewInMemoryReader()
	s.userID = uuid.New()
	s.ctx = context.Background()

	svc, err := service.New(
		s.sessions, s.extraction, s.biometric, s.objects, s.applications,
		service.WithBalanceReader(s.balances),
		service.WithBucket("kyc-documents"),
	)
	s.Require().NoError(err)
	s.svc = svc
}

// seed puts the session into a known state.
func (s *ServiceSuite) seed(state models.State, fields models.Fields) {
	s.Require().NoError(s.sessions.Save(s.ctx, &models.Session{
		UserID: s.userID,
		State:  state,
		Fields: fields,
	}))
}

// reload fetches the session back out of the store.
func (s *ServiceSuite) reload() *models.Session {
	sess, err := s.sessions.GetOrCreate(s.ctx, s.userID)
	s.Require().NoError(err)
	return sess
}

func (s *ServiceSuite) single(resp *models.Response) models.Message {
	s.Require().NotNil(resp)
	s.Require().Len(resp.Messages, 1)
	return resp.Messages[0]
}

// confirmedIdentity is a session filled through the identity front stage.
func confirmedIdentity() models.Fields {
	return models.Fields{
		Identity: models.IdentityFields{
			FirstName:  "Rahul",
			LastName:   "Sharma",
			DOB:        "15/08/1990",
			Gender:     "Male",
			NationalID: "123456789012",
		},
		FrontImageURL: "https://kyc-documents.example/front.jpg",
		FrontImage:    []byte("front-image-bytes"),
	}
}

// fullFields is a session ready for the live photo stage.
func fullFields() models.Fields {
	f := confirmedIdentity()
	f.Address = models.AddressFields{
		Line:       "12 MG Road",
		City:       "Pune",
		District:   "Pune",
		Region:     "Maharashtra",
		PostalCode: "411001",
	}
	f.Tax = models.TaxFields{
		Number:     "ABCDE1234F",
		HolderName: "Rahul Sharma",
		FatherName: "Suresh Sharma",
		DOB:        "15/08/1990",
	}
	f.BackImageURL = "https://kyc-documents.example/back.jpg"
	f.TaxImageURL = "https://kyc-documents.example/tax.jpg"
	return f
}

// --- conversation dispatch ---

func (s *ServiceSuite) TestGreetingFromInitial() {
	resp, err := s.svc.HandleMessage(s.ctx, s.userID, "Hello!")
	s.Require().NoError(err)

	msg := s.single(resp)
	s.Equal(models.KindText, msg.Kind)
	s.Contains(msg.Text, "banking assistant")
}

func (s *ServiceSuite) TestFallbackFromInitial() {
	resp, err := s.svc.HandleMessage(s.ctx, s.userID, "what is the weather today")
	s.Require().NoError(err)

	msg := s.single(resp)
	s.Equal(models.KindText, msg.Kind)
	s.Contains(msg.Text, "didn't understand")
}

func (s *ServiceSuite) TestOpenAccountStartsFlow() {
	resp, err := s.svc.HandleMessage(s.ctx, s.userID, "I want to open an account")
	s.Require().NoError(err)

	msg := s.single(resp)
	s.Equal(models.KindActionRequired, msg.Kind)
	s.Require().NotNil(msg.Payload)
	s.Equal(models.ActionUploadIdentity, msg.Payload.Action)
	s.Equal(models.StateAwaitingIDFront, s.reload().State)
}

func (s *ServiceSuite) TestOpenAccountRestartsMidFlowAndWipesFields() {
	s.seed(models.StateConfirmingTaxDoc, fullFields())

	_, err := s.svc.HandleMessage(s.ctx, s.userID, "open account")
	s.Require().NoError(err)

	sess := s.reload()
	s.Equal(models.StateAwaitingIDFront, sess.State)
	s.Equal(models.Fields{}, sess.Fields)
}

func (s *ServiceSuite) TestCancelFromEveryState() {
	states := []models.State{
		models.StateInitial,
		models.StateAwaitingIDFront,
		models.StateConfirmingIDFront,
		models.StateAwaitingIDBack,
		models.StateConfirmingIDBack,
		models.StateAwaitingTaxDoc,
		models.StateConfirmingTaxDoc,
		models.StateAwaitingLivePhoto,
		models.StateCompleted,
	}
	for _, state := range states {
		s.Run(string(state), func() {
			s.seed(state, confirmedIdentity())

			resp, err := s.svc.HandleMessage(s.ctx, s.userID, "cancel")
			s.Require().NoError(err)

			msg := s.single(resp)
			s.Contains(msg.Text, "stopped the current process")

			sess := s.reload()
			s.Equal(models.StateInitial, sess.State)
			s.Equal(models.Fields{}, sess.Fields)
		})
	}
}

func (s *ServiceSuite) TestCancelTokenInsideSentence() {
	s.seed(models.StateConfirmingIDFront, confirmedIdentity())

	resp, err := s.svc.HandleMessage(s.ctx, s.userID, "please stop this now")
	s.Require().NoError(err)

	s.Contains(s.single(resp).Text, "stopped the current process")
	s.Equal(models.StateInitial, s.reload().State)
}

func (s *ServiceSuite) TestWordContainingCancelTokenDoesNotCancel() {
	s.seed(models.StateConfirmingIDFront, confirmedIdentity())
	s.extraction.EXPECT().
		InterpretCorrection(gomock.Any(), gomock.Any(), "I lost my stopwatch").
		Return(map[string]string{}, nil)

	resp, err := s.svc.HandleMessage(s.ctx, s.userID, "I lost my stopwatch")
	s.Require().NoError(err)

	s.Contains(s.single(resp).Text, "No changes detected")
	s.Equal(models.StateConfirmingIDFront, s.reload().State)
}

func (s *ServiceSuite) TestBalanceQuery() {
	s.balances.SetBalance(s.userID, decimal.RequireFromString("1234.5"))

	resp, err := s.svc.HandleMessage(s.ctx, s.userID, "what is my balance?")
	s.Require().NoError(err)

	s.Equal("Your current balance is 1234.50.", s.single(resp).Text)
}

func (s *ServiceSuite) TestBalanceQueryWithoutAccount() {
	resp, err := s.svc.HandleMessage(s.ctx, s.userID, "check balance please")
	s.Require().NoError(err)

	s.Contains(s.single(resp).Text, "don't have an active account")
}

func (s *ServiceSuite) TestBalanceSkippedWhileConfirming() {
	s.seed(models.StateConfirmingIDFront, confirmedIdentity())
	s.balances.SetBalance(s.userID, decimal.NewFromInt(500))
	s.extraction.EXPECT().
		InterpretCorrection(gomock.Any(), gomock.Any(), "balance").
		Return(map[string]string{}, nil)

	resp, err := s.svc.HandleMessage(s.ctx, s.userID, "balance")
	s.Require().NoError(err)

	s.NotContains(s.single(resp).Text, "current balance")
}

func (s *ServiceSuite) TestAwaitingStateReprompts() {
	s.seed(models.StateAwaitingTaxDoc, confirmedIdentity())

	resp, err := s.svc.HandleMessage(s.ctx, s.userID, "hello?")
	s.Require().NoError(err)

	msg := s.single(resp)
	s.Equal(models.KindActionRequired, msg.Kind)
	s.Equal(models.ActionUploadTax, msg.Payload.Action)
}

func (s *ServiceSuite) TestCompletedStateIsTerminal() {
	s.seed(models.StateCompleted, models.Fields{})

	resp, err := s.svc.HandleMessage(s.ctx, s.userID, "what now")
	s.Require().NoError(err)

	s.Contains(s.single(resp).Text, "has been submitted")
	s.Equal(models.StateCompleted, s.reload().State)
}

// --- identity front upload ---

func idFrontRecord() *models.ExtractedRecord {
	return &models.ExtractedRecord{
		Kind:  models.ExtractIDFront,
		Valid: true,
		Fields: map[string]string{
			models.FieldName:       "Rahul Sharma",
			models.FieldDOB:        "15/08/1990",
			models.FieldNationalID: "123456789012",
		},
	}
}

func (s *ServiceSuite) TestIDFrontAccepted() {
	s.seed(models.StateAwaitingIDFront, models.Fields{})
	image := []byte("front-image-bytes")

	s.extraction.EXPECT().
		Extract(gomock.Any(), models.ExtractIDFront, image).
		Return(idFrontRecord(), nil)
	s.applications.EXPECT().
		FindByNationalID(gomock.Any(), "123456789012").
		Return(nil, sentinel.ErrNotFound)
	s.objects.EXPECT().
		Put(gomock.Any(), "kyc-documents", fmt.Sprintf("%s/id_front.jpg", s.userID), image, "image/jpeg").
		Return("https://kyc-documents.example/front.jpg", nil)

	resp, err := s.svc.HandleUpload(s.ctx, s.userID, models.KindIdentity, image, "image/jpeg")
	s.Require().NoError(err)

	msg := s.single(resp)
	s.Equal(models.KindExtractionSuccess, msg.Kind)
	s.Require().NotNil(msg.Payload)
	s.Equal("123456789012", msg.Payload.ExtractedData["ID Number"])
	s.Equal("Rahul Sharma", msg.Payload.ExtractedData["Name"])

	sess := s.reload()
	s.Equal(models.StateConfirmingIDFront, sess.State)
	s.Equal("Rahul", sess.Fields.Identity.FirstName)
	s.Equal("Sharma", sess.Fields.Identity.LastName)
	s.Equal("Other", sess.Fields.Identity.Gender, "absent gender defaults")
	s.Equal(image, sess.Fields.FrontImage, "front bytes retained for face isolation")
	s.Equal("https://kyc-documents.example/front.jpg", sess.Fields.FrontImageURL)
}

func (s *ServiceSuite) TestIDFrontTransientExtractionFailure() {
	s.seed(models.StateAwaitingIDFront, models.Fields{})
	s.extraction.EXPECT().
		Extract(gomock.Any(), models.ExtractIDFront, gomock.Any()).
		Return(nil, fmt.Errorf("call vision model: %w", sentinel.ErrUnavailable))

	resp, err := s.svc.HandleUpload(s.ctx, s.userID, models.KindIdentity, []byte("img"), "image/jpeg")
	s.Require().NoError(err)

	msg := s.single(resp)
	s.Equal(models.KindError, msg.Kind)
	s.Contains(msg.Text, "temporary problem")
	s.Equal(models.StateAwaitingIDFront, s.reload().State)
}

func (s *ServiceSuite) TestIDFrontNotADocument() {
	s.seed(models.StateAwaitingIDFront, models.Fields{})
	s.extraction.EXPECT().
		Extract(gomock.Any(), models.ExtractIDFront, gomock.Any()).
		Return(&models.ExtractedRecord{Kind: models.ExtractIDFront, Valid: false}, nil)

	resp, err := s.svc.HandleUpload(s.ctx, s.userID, models.KindIdentity, []byte("img"), "image/jpeg")
	s.Require().NoError(err)

	s.Contains(s.single(resp).Text, "does not appear to be a valid identity card front")
	s.Equal(models.StateAwaitingIDFront, s.reload().State)
}

func (s *ServiceSuite) TestIDFrontMissingCriticalNeverMerges() {
	s.seed(models.StateAwaitingIDFront, models.Fields{})
	record := idFrontRecord()
	delete(record.Fields, models.FieldDOB)
	s.extraction.EXPECT().
		Extract(gomock.Any(), models.ExtractIDFront, gomock.Any()).
		Return(record, nil)

	resp, err := s.svc.HandleUpload(s.ctx, s.userID, models.KindIdentity, []byte("img"), "image/jpeg")
	s.Require().NoError(err)

	s.Contains(s.single(resp).Text, "critical details")

	sess := s.reload()
	s.Equal(models.StateAwaitingIDFront, sess.State)
	s.Empty(sess.Fields.Identity.NationalID, "rejected extraction must not merge partially")
}

func (s *ServiceSuite) TestIDFrontDuplicateApplicationResetsSession() {
	s.seed(models.StateAwaitingIDFront, models.Fields{})
	s.extraction.EXPECT().
		Extract(gomock.Any(), models.ExtractIDFront, gomock.Any()).
		Return(idFrontRecord(), nil)
	s.applications.EXPECT().
		FindByNationalID(gomock.Any(), "123456789012").
		Return(&models.PendingApplication{
			ApplicationNo: "APP-1A2B3C4D",
			Status:        models.StatusPending,
		}, nil)

	resp, err := s.svc.HandleUpload(s.ctx, s.userID, models.KindIdentity, []byte("img"), "image/jpeg")
	s.Require().NoError(err)

	msg := s.single(resp)
	s.Equal(models.KindError, msg.Kind)
	s.Contains(msg.Text, "APP-1A2B3C4D")
	s.Contains(msg.Text, "pending")

	sess := s.reload()
	s.Equal(models.StateInitial, sess.State)
	s.Equal(models.Fields{}, sess.Fields)
}

func (s *ServiceSuite) TestIDFrontStorageFailureDoesNotAdvance() {
	s.seed(models.StateAwaitingIDFront, models.Fields{})
	s.extraction.EXPECT().
		Extract(gomock.Any(), models.ExtractIDFront, gomock.Any()).
		Return(idFrontRecord(), nil)
	s.applications.EXPECT().
		FindByNationalID(gomock.Any(), gomock.Any()).
		Return(nil, sentinel.ErrNotFound)
	s.objects.EXPECT().
		Put(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return("", fmt.Errorf("put object: %w", sentinel.ErrUnavailable))

	resp, err := s.svc.HandleUpload(s.ctx, s.userID, models.KindIdentity, []byte("img"), "image/jpeg")
	s.Require().NoError(err)

	s.Contains(s.single(resp).Text, "Failed to store")

	sess := s.reload()
	s.Equal(models.StateAwaitingIDFront, sess.State)
	s.Empty(sess.Fields.Identity.NationalID)
}

func (s *ServiceSuite) TestUploadKindStateMismatchLeavesSessionUntouched() {
	s.seed(models.StateAwaitingIDFront, models.Fields{})

	resp, err := s.svc.HandleUpload(s.ctx, s.userID, models.KindTax, []byte("img"), "image/jpeg")
	s.Require().NoError(err)

	s.Contains(s.single(resp).Text, "Not expecting a tax card")
	s.Equal(models.StateAwaitingIDFront, s.reload().State)
}

func (s *ServiceSuite) TestIdentityUploadRejectedFromInitial() {
	resp, err := s.svc.HandleUpload(s.ctx, s.userID, models.KindIdentity, []byte("img"), "image/jpeg")
	s.Require().NoError(err)

	s.Contains(s.single(resp).Text, "Not expecting an identity card")
	s.Equal(models.StateInitial, s.reload().State)
}

// --- identity back upload ---

func (s *ServiceSuite) TestIDBackAppliesPlaceholdersForUnreadableFields() {
	s.seed(models.StateAwaitingIDBack, confirmedIdentity())
	s.extraction.EXPECT().
		Extract(gomock.Any(), models.ExtractIDBack, gomock.Any()).
		Return(&models.ExtractedRecord{
			Kind:   models.ExtractIDBack,
			Valid:  true,
			Fields: map[string]string{models.FieldCity: "Pune"},
		}, nil)
	s.objects.EXPECT().
		Put(gomock.Any(), gomock.Any(), fmt.Sprintf("%s/id_back.jpg", s.userID), gomock.Any(), gomock.Any()).
		Return("https://kyc-documents.example/back.jpg", nil)

	resp, err := s.svc.HandleUpload(s.ctx, s.userID, models.KindIdentity, []byte("img"), "image/jpeg")
	s.Require().NoError(err)

	s.Equal(models.KindExtractionSuccess, s.single(resp).Kind)

	sess := s.reload()
	s.Equal(models.StateConfirmingIDBack, sess.State)
	s.Equal("Unknown Address", sess.Fields.Address.Line)
	s.Equal("Pune", sess.Fields.Address.City)
	s.Equal("Unknown District", sess.Fields.Address.District)
	s.Equal("Unknown State", sess.Fields.Address.Region)
	s.Equal("000000", sess.Fields.Address.PostalCode)
	s.Equal("Rahul", sess.Fields.Identity.FirstName, "identity namespace untouched by back side")
}

// --- tax upload ---

func taxRecord() *models.ExtractedRecord {
	return &models.ExtractedRecord{
		Kind:  models.ExtractTaxCard,
		Valid: true,
		Fields: map[string]string{
			models.FieldTaxNumber:  "ABCDE1234F",
			models.FieldName:       "Rahul Sharma",
			models.FieldFatherName: "Suresh Sharma",
			models.FieldDOB:        "15/08/1990",
		},
	}
}

func (s *ServiceSuite) TestTaxCardAccepted() {
	fields := confirmedIdentity()
	fields.Address = models.AddressFields{Line: "12 MG Road", City: "Pune"}
	s.seed(models.StateAwaitingTaxDoc, fields)

	s.extraction.EXPECT().
		Extract(gomock.Any(), models.ExtractTaxCard, gomock.Any()).
		Return(taxRecord(), nil)
	s.objects.EXPECT().
		Put(gomock.Any(), gomock.Any(), fmt.Sprintf("%s/tax_card.jpg", s.userID), gomock.Any(), gomock.Any()).
		Return("https://kyc-documents.example/tax.jpg", nil)

	resp, err := s.svc.HandleUpload(s.ctx, s.userID, models.KindTax, []byte("img"), "image/jpeg")
	s.Require().NoError(err)

	msg := s.single(resp)
	s.Equal(models.KindExtractionSuccess, msg.Kind)
	s.Equal("ABCDE1234F", msg.Payload.ExtractedData["Tax Number"])

	sess := s.reload()
	s.Equal(models.StateConfirmingTaxDoc, sess.State)
	s.Equal("Suresh Sharma", sess.Fields.Tax.FatherName)
}

func (s *ServiceSuite) TestTaxCardMissingCritical() {
	s.seed(models.StateAwaitingTaxDoc, confirmedIdentity())
	record := taxRecord()
	delete(record.Fields, models.FieldFatherName)
	s.extraction.EXPECT().
		Extract(gomock.Any(), models.ExtractTaxCard, gomock.Any()).
		Return(record, nil)

	resp, err := s.svc.HandleUpload(s.ctx, s.userID, models.KindTax, []byte("img"), "image/jpeg")
	s.Require().NoError(err)

	s.Contains(s.single(resp).Text, "critical details")
	s.Equal(models.StateAwaitingTaxDoc, s.reload().State)
}

// --- confirmation and correction ---

func (s *ServiceSuite) TestCorrectionPatchesOnlyNamedFields() {
	s.seed(models.StateConfirmingIDFront, confirmedIdentity())
	s.extraction.EXPECT().
		InterpretCorrection(gomock.Any(), gomock.Any(), "my name is actually Rahul Kumar Sharma").
		Return(map[string]string{models.FieldName: "Rahul Kumar Sharma"}, nil)

	resp, err := s.svc.HandleMessage(s.ctx, s.userID, "my name is actually Rahul Kumar Sharma")
	s.Require().NoError(err)

	msg := s.single(resp)
	s.Equal(models.KindExtractionSuccess, msg.Kind)
	s.Equal("Rahul Kumar Sharma", msg.Payload.ExtractedData["Name"])
	s.Equal("15/08/1990", msg.Payload.ExtractedData["DOB"], "unnamed fields preserved")

	sess := s.reload()
	s.Equal(models.StateConfirmingIDFront, sess.State, "correction does not advance the flow")
	s.Equal("Rahul", sess.Fields.Identity.FirstName)
	s.Equal("Kumar Sharma", sess.Fields.Identity.LastName)
	s.Equal("123456789012", sess.Fields.Identity.NationalID)
}

func (s *ServiceSuite) TestCorrectionInterpreterFailure() {
	s.seed(models.StateConfirmingIDFront, confirmedIdentity())
	s.extraction.EXPECT().
		InterpretCorrection(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(nil, fmt.Errorf("call correction model: %w", sentinel.ErrUnavailable))

	resp, err := s.svc.HandleMessage(s.ctx, s.userID, "dob should be 16/08/1990")
	s.Require().NoError(err)

	s.Contains(s.single(resp).Text, "temporary problem")

	sess := s.reload()
	s.Equal("15/08/1990", sess.Fields.Identity.DOB, "failed correction changes nothing")
	s.Equal(models.StateConfirmingIDFront, sess.State)
}

func (s *ServiceSuite) TestConfirmIdentityAdvancesToBackSide() {
	s.seed(models.StateConfirmingIDFront, confirmedIdentity())

	resp, err := s.svc.HandleMessage(s.ctx, s.userID, "  Correct ")
	s.Require().NoError(err)

	msg := s.single(resp)
	s.Equal(models.KindActionRequired, msg.Kind)
	s.Equal(models.ActionUploadIdentity, msg.Payload.Action)
	s.Equal(models.StateAwaitingIDBack, s.reload().State)
}

func (s *ServiceSuite) TestConfirmAddressAdvancesToTax() {
	fields := confirmedIdentity()
	fields.Address = models.AddressFields{Line: "12 MG Road"}
	s.seed(models.StateConfirmingIDBack, fields)

	resp, err := s.svc.HandleMessage(s.ctx, s.userID, "correct")
	s.Require().NoError(err)

	s.Equal(models.ActionUploadTax, s.single(resp).Payload.Action)
	s.Equal(models.StateAwaitingTaxDoc, s.reload().State)
}

func (s *ServiceSuite) TestConfirmTaxReportsMatchAndAdvances() {
	s.seed(models.StateConfirmingTaxDoc, fullFields())

	resp, err := s.svc.HandleMessage(s.ctx, s.userID, "correct")
	s.Require().NoError(err)

	msg := s.single(resp)
	s.Contains(msg.Text, "details matched")
	s.Equal(models.ActionUploadLivePhoto, msg.Payload.Action)
	s.Equal(models.StateAwaitingLivePhoto, s.reload().State)
}

func (s *ServiceSuite) TestConfirmTaxDOBMismatchIsAdvisory() {
	fields := fullFields()
	fields.Tax.DOB = "16/08/1990"
	s.seed(models.StateConfirmingTaxDoc, fields)

	resp, err := s.svc.HandleMessage(s.ctx, s.userID, "correct")
	s.Require().NoError(err)

	msg := s.single(resp)
	s.Contains(msg.Text, "DOB mismatch")
	s.Equal(models.StateAwaitingLivePhoto, s.reload().State, "mismatch never blocks")
}

// --- live photo ---

func (s *ServiceSuite) TestLivePhotoVerifiedSubmitsApplication() {
	s.seed(models.StateAwaitingLivePhoto, fullFields())
	live := []byte("live-photo-bytes")

	s.biometric.EXPECT().
		IsolateFace(gomock.Any(), []byte("front-image-bytes")).
		Return([]byte("face"), nil)
	s.biometric.EXPECT().
		Match(gomock.Any(), live, []byte("face")).
		Return(true, nil)
	s.objects.EXPECT().
		Put(gomock.Any(), gomock.Any(), fmt.Sprintf("%s/live_photo.jpg", s.userID), live, "image/jpeg").
		Return("https://kyc-documents.example/live.jpg", nil)

	var created *models.PendingApplication
	s.applications.EXPECT().
		Create(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, app *models.PendingApplication) error {
			created = app
			return nil
		})

	resp, err := s.svc.HandleUpload(s.ctx, s.userID, models.KindLivePhoto, live, "image/jpeg")
	s.Require().NoError(err)

	s.Require().NotNil(created)
	msg := s.single(resp)
	s.Contains(msg.Text, "Verification successful")
	s.Contains(msg.Text, created.ApplicationNo)
	s.True(created.KYCVerified)
	s.Equal(models.StatusPending, created.Status)
	s.Equal("Rahul", created.FirstName)
	s.Equal("Sharma", created.LastName)
	s.Equal("Suresh Sharma", created.FatherName)
	s.Equal(time.Date(1990, time.August, 15, 0, 0, 0, 0, time.UTC), created.DOB)
	s.Equal("123456789012", created.NationalID)
	s.Equal("ABCDE1234F", created.TaxID)
	s.Equal("India", created.Country)
	s.Regexp(`^APP-[0-9A-F]{8}$`, created.ApplicationNo)
	s.Equal("https://kyc-documents.example/live.jpg", created.LivePhotoImageURL)

	sess := s.reload()
	s.Equal(models.StateCompleted, sess.State)
	s.Nil(sess.Fields.FrontImage, "retained front bytes cleared on terminal path")
}

func (s *ServiceSuite) TestLivePhotoMismatchPromptsRetry() {
	s.seed(models.StateAwaitingLivePhoto, fullFields())

	s.biometric.EXPECT().IsolateFace(gomock.Any(), gomock.Any()).Return([]byte("face"), nil)
	s.biometric.EXPECT().Match(gomock.Any(), gomock.Any(), gomock.Any()).Return(false, nil)

	resp, err := s.svc.HandleUpload(s.ctx, s.userID, models.KindLivePhoto, []byte("live"), "image/jpeg")
	s.Require().NoError(err)

	msg := s.single(resp)
	s.Equal(models.KindActionRequired, msg.Kind)
	s.Contains(msg.Text, "2 attempt(s) remaining")
	s.Equal(models.ActionUploadLivePhoto, msg.Payload.Action)

	sess := s.reload()
	s.Equal(models.StateAwaitingLivePhoto, sess.State)
	s.Equal(1, sess.Fields.RetryCount)
	s.NotNil(sess.Fields.FrontImage, "front bytes survive for the next attempt")
}

func (s *ServiceSuite) TestLivePhotoThirdMismatchSubmitsUnverified() {
	fields := fullFields()
	fields.RetryCount = 2
	s.seed(models.StateAwaitingLivePhoto, fields)

	s.biometric.EXPECT().IsolateFace(gomock.Any(), gomock.Any()).Return([]byte("face"), nil)
	s.biometric.EXPECT().Match(gomock.Any(), gomock.Any(), gomock.Any()).Return(false, nil)
	s.objects.EXPECT().
		Put(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return("https://kyc-documents.example/live.jpg", nil)

	var created *models.PendingApplication
	s.applications.EXPECT().
		Create(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, app *models.PendingApplication) error {
			created = app
			return nil
		})

	resp, err := s.svc.HandleUpload(s.ctx, s.userID, models.KindLivePhoto, []byte("live"), "image/jpeg")
	s.Require().NoError(err)

	s.Contains(s.single(resp).Text, "manual KYC")

	s.Require().NotNil(created)
	s.False(created.KYCVerified)
	s.Equal(models.StatusPending, created.Status)
	s.Equal(models.StateCompleted, s.reload().State)
}

func (s *ServiceSuite) TestLivePhotoNoFaceOnDocumentRestartsFlow() {
	s.seed(models.StateAwaitingLivePhoto, fullFields())
	s.biometric.EXPECT().
		IsolateFace(gomock.Any(), gomock.Any()).
		Return(nil, fmt.Errorf("no face detected: %w", sentinel.ErrNotFound))

	resp, err := s.svc.HandleUpload(s.ctx, s.userID, models.KindLivePhoto, []byte("live"), "image/jpeg")
	s.Require().NoError(err)

	s.Contains(s.single(resp).Text, "Could not detect a clear face")

	sess := s.reload()
	s.Equal(models.StateInitial, sess.State)
	s.Equal(models.Fields{}, sess.Fields)
}

func (s *ServiceSuite) TestLivePhotoWithoutRetainedFrontImage() {
	fields := fullFields()
	fields.FrontImage = nil
	s.seed(models.StateAwaitingLivePhoto, fields)

	resp, err := s.svc.HandleUpload(s.ctx, s.userID, models.KindLivePhoto, []byte("live"), "image/jpeg")
	s.Require().NoError(err)

	s.Contains(s.single(resp).Text, "missing from this session")
	s.Equal(models.StateInitial, s.reload().State)
}

func (s *ServiceSuite) TestLivePhotoTransientMatchFailureKeepsAttempt() {
	s.seed(models.StateAwaitingLivePhoto, fullFields())
	s.biometric.EXPECT().IsolateFace(gomock.Any(), gomock.Any()).Return([]byte("face"), nil)
	s.biometric.EXPECT().
		Match(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(false, fmt.Errorf("compare faces: %w", sentinel.ErrUnavailable))

	resp, err := s.svc.HandleUpload(s.ctx, s.userID, models.KindLivePhoto, []byte("live"), "image/jpeg")
	s.Require().NoError(err)

	s.Contains(s.single(resp).Text, "temporary problem")

	sess := s.reload()
	s.Equal(models.StateAwaitingLivePhoto, sess.State)
	s.Equal(0, sess.Fields.RetryCount, "transient failure does not burn an attempt")
}

func (s *ServiceSuite) TestLivePhotoStorageFailureIsRetryable() {
	s.seed(models.StateAwaitingLivePhoto, fullFields())
	s.biometric.EXPECT().IsolateFace(gomock.Any(), gomock.Any()).Return([]byte("face"), nil)
	s.biometric.EXPECT().Match(gomock.Any(), gomock.Any(), gomock.Any()).Return(true, nil)
	s.objects.EXPECT().
		Put(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return("", fmt.Errorf("put object: %w", sentinel.ErrUnavailable))

	resp, err := s.svc.HandleUpload(s.ctx, s.userID, models.KindLivePhoto, []byte("live"), "image/jpeg")
	s.Require().NoError(err)

	s.Contains(s.single(resp).Text, "Failed to store")

	sess := s.reload()
	s.Equal(models.StateAwaitingLivePhoto, sess.State)
	s.NotNil(sess.Fields.FrontImage)
}

func (s *ServiceSuite) TestLivePhotoCommitFailureReportsAndCompletes() {
	s.seed(models.StateAwaitingLivePhoto, fullFields())
	s.biometric.EXPECT().IsolateFace(gomock.Any(), gomock.Any()).Return([]byte("face"), nil)
	s.biometric.EXPECT().Match(gomock.Any(), gomock.Any(), gomock.Any()).Return(true, nil)
	s.objects.EXPECT().
		Put(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return("https://kyc-documents.example/live.jpg", nil)
	s.applications.EXPECT().
		Create(gomock.Any(), gomock.Any()).
		Return(errors.New("insert application: connection refused"))

	resp, err := s.svc.HandleUpload(s.ctx, s.userID, models.KindLivePhoto, []byte("live"), "image/jpeg")
	s.Require().NoError(err)

	msg := s.single(resp)
	s.Equal(models.KindError, msg.Kind)
	s.Contains(msg.Text, "could not save the application")

	sess := s.reload()
	s.Equal(models.StateCompleted, sess.State)
	s.Nil(sess.Fields.FrontImage)
}
