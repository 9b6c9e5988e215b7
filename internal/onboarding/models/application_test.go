package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDOB(t *testing.T) {
	got, err := ParseDOB("15/08/1990")
	require.NoError(t, err)
	assert.Equal(t, time.Date(1990, time.August, 15, 0, 0, 0, 0, time.UTC), got)

	got, err = ParseDOB("1990-08-15")
	require.NoError(t, err)
	assert.Equal(t, time.Date(1990, time.August, 15, 0, 0, 0, 0, time.UTC), got)

	_, err = ParseDOB("August 15, 1990")
	assert.Error(t, err)

	_, err = ParseDOB("")
	assert.Error(t, err)
}

func TestNewApplicationNo(t *testing.T) {
	no := NewApplicationNo()
	assert.Regexp(t, `^APP-[0-9A-F]{8}$`, no)
	assert.NotEqual(t, no, NewApplicationNo())
}

func TestMissingCritical(t *testing.T) {
	front := &ExtractedRecord{
		Kind:  ExtractIDFront,
		Valid: true,
		Fields: map[string]string{
			FieldName: "Rahul Sharma",
			FieldDOB:  "15/08/1990",
		},
	}
	assert.Equal(t, []string{FieldNationalID}, front.MissingCritical())

	front.Fields[FieldNationalID] = "123456789012"
	assert.Empty(t, front.MissingCritical())

	// The back side has no critical fields at all.
	back := &ExtractedRecord{Kind: ExtractIDBack, Valid: true, Fields: map[string]string{}}
	assert.Empty(t, back.MissingCritical())

	tax := &ExtractedRecord{Kind: ExtractTaxCard, Valid: true, Fields: map[string]string{
		FieldTaxNumber: "ABCDE1234F",
	}}
	assert.Equal(t, []string{FieldFatherName}, tax.MissingCritical())
}

func TestSessionResetAndRestart(t *testing.T) {
	sess := Session{
		State: StateConfirmingTaxDoc,
		Fields: Fields{
			Identity:   IdentityFields{FirstName: "Rahul"},
			FrontImage: []byte("bytes"),
			RetryCount: 2,
		},
	}

	sess.Restart()
	assert.Equal(t, StateAwaitingIDFront, sess.State)
	assert.Equal(t, Fields{}, sess.Fields)

	sess.State = StateAwaitingLivePhoto
	sess.Fields.RetryCount = 1
	sess.Reset()
	assert.Equal(t, StateInitial, sess.State)
	assert.Equal(t, Fields{}, sess.Fields)
}
