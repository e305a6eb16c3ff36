package routing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/supportmesh/supportmesh/tool"
)

func TestClassifySingleIntent(t *testing.T) {
	tests := []struct {
		query string
		want  Tag
	}{
		{"Show me the ticket history for customer ID 1", DataLookup},
		{"Please update my email to jane@new.example.com", DataUpdate},
		{"Which active customers have open tickets?", DataReport},
		{"I want to create a ticket about my broken dashboard", TicketCreate},
		{"I have a question about my invoice", Billing},
		{"I want to cancel my subscription", Cancellation},
		{"Can I upgrade to the premium plan?", Upgrade},
		{"This is an emergency, my account is locked", Escalation},
		{"Hello, I need some help", GeneralSupport},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			cls, err := Classify(tt.query)
			require.NoError(t, err)
			require.Len(t, cls.Matches, 1)
			assert.False(t, cls.Multi)
			assert.Equal(t, tt.want, cls.Matches[0].Tag)
		})
	}
}

func TestClassifyMultiIntentPreservesQueryOrder(t *testing.T) {
	cls, err := Classify("Update my email to new@email.com and show my ticket history for customer ID 2")
	require.NoError(t, err)

	require.Len(t, cls.Matches, 2)
	assert.True(t, cls.Multi)
	assert.Equal(t, DataUpdate, cls.Matches[0].Tag)
	assert.Equal(t, DataLookup, cls.Matches[1].Tag)
	assert.Less(t, cls.Matches[0].Pos, cls.Matches[1].Pos)
}

func TestClassifyEscalationWinsOverBilling(t *testing.T) {
	cls, err := Classify("I've been charged twice, please refund immediately!")
	require.NoError(t, err)

	require.Len(t, cls.Matches, 1)
	assert.Equal(t, Escalation, cls.Matches[0].Tag)
}

func TestClassifyEmptyQuery(t *testing.T) {
	for _, q := range []string{"", "   ", "\n\t"} {
		_, err := Classify(q)
		require.Error(t, err)
		assert.Equal(t, tool.CodeValidation, tool.CodeOf(err))
	}
}

func TestExtractParams(t *testing.T) {
	tests := []struct {
		name   string
		query  string
		wantID int64
		email  string
		prio   string
	}{
		{"customer id phrase", "show history for customer ID 2", 2, "", ""},
		{"customer number sign", "who is customer #14?", 14, "", ""},
		{"bare id", "look up id 7 please", 7, "", ""},
		{"email and id", "update my email to new@email.com for customer 3", 3, "new@email.com", ""},
		{"urgent priority", "create a ticket for customer 5, this is urgent", 5, "", "urgent"},
		{"high priority", "create a ticket for customer 5, high priority", 5, "", "high"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := ExtractParams(tt.query)
			require.NotNil(t, p.CustomerID)
			assert.Equal(t, tt.wantID, *p.CustomerID)
			assert.Equal(t, tt.email, p.Email)
			assert.Equal(t, tt.prio, p.Priority)
		})
	}

	p := ExtractParams("hello there")
	assert.Nil(t, p.CustomerID)
	assert.Empty(t, p.Email)
}

func TestExtractParamsPhone(t *testing.T) {
	tests := []struct {
		name  string
		query string
		phone string
	}{
		{"dashed", "update my phone to 555-123-4567 for customer 3", "555-123-4567"},
		{"parenthesized", "change my phone to (555) 123-4567", "(555) 123-4567"},
		{"country code", "update my phone to +1 555 123 4567 for customer 3", "+1 555 123 4567"},
		{"bare digits", "change my phone to 5551234567", "5551234567"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.phone, ExtractParams(tt.query).Phone)
		})
	}

	// Short numeric values stay customer IDs, never phone numbers.
	p := ExtractParams("show history for customer ID 2")
	require.NotNil(t, p.CustomerID)
	assert.Equal(t, int64(2), *p.CustomerID)
	assert.Empty(t, p.Phone)
}

func TestDecideCarriesPhone(t *testing.T) {
	dec, err := Decide("Update my phone to 555-123-4567 for customer 3")
	require.NoError(t, err)

	require.Len(t, dec.Entries, 1)
	assert.Equal(t, DataUpdate, dec.Entries[0].Tag)
	assert.Equal(t, "555-123-4567", dec.Entries[0].Envelope.Phone)
	require.NotNil(t, dec.Entries[0].Envelope.CustomerID)
	assert.Equal(t, int64(3), *dec.Entries[0].Envelope.CustomerID)
}

func TestDecideBuildsEnvelopes(t *testing.T) {
	dec, err := Decide("Update my email to new@email.com and show my ticket history for customer ID 2")
	require.NoError(t, err)

	assert.Equal(t, Multi, dec.Intent)
	require.Len(t, dec.Entries, 2)

	first := dec.Entries[0]
	assert.Equal(t, DataUpdate, first.Tag)
	assert.Equal(t, SpecialistData, first.Specialist)
	require.NotNil(t, first.Envelope.CustomerID)
	assert.Equal(t, int64(2), *first.Envelope.CustomerID)
	assert.Equal(t, "new@email.com", first.Envelope.Email)

	second := dec.Entries[1]
	assert.Equal(t, DataLookup, second.Tag)
	assert.Equal(t, SpecialistData, second.Specialist)
}

func TestDecideFallback(t *testing.T) {
	dec, err := Decide("good morning")
	require.NoError(t, err)

	assert.Equal(t, GeneralSupport, dec.Intent)
	require.Len(t, dec.Entries, 1)
	assert.Equal(t, SpecialistSupport, dec.Entries[0].Specialist)
}

func TestEnvelopeRoundTrip(t *testing.T) {
	id := int64(4)
	env := Envelope{Intent: TicketCreate, Query: "create a ticket", CustomerID: &id, Priority: "high"}

	decoded, err := DecodeEnvelope(env.Encode())
	require.NoError(t, err)
	assert.Equal(t, env, decoded)
}

func TestDecodeEnvelopeRejectsGarbage(t *testing.T) {
	for _, text := range []string{"not json", "{}", `{"query":"no intent"}`} {
		_, err := DecodeEnvelope(text)
		require.Error(t, err, text)
		assert.Equal(t, tool.CodeValidation, tool.CodeOf(err))
	}
}

func TestSpecialistForCoversAllTags(t *testing.T) {
	for _, tag := range DataIntents {
		assert.Equal(t, SpecialistData, SpecialistFor(tag))
	}
	for _, tag := range SupportIntents {
		assert.Equal(t, SpecialistSupport, SpecialistFor(tag))
	}
}
