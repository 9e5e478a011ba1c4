package mailer

import (
	"bytes"
	"testing"

	"github.com/amirrudd/flyerboard/internal/listing/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPriceDropMessage(t *testing.T) {
	now, was := 80.0, 100.0
	l := &domain.Listing{Title: "Road bike", Price: &now, PreviousPrice: &was}

	msg := NewPriceDropMessage("noreply@flyerboard.test", "buyer@example.com", l)

	assert.Equal(t, []string{"buyer@example.com"}, msg.GetHeader("To"))
	assert.Equal(t, []string{"Price drop: Road bike"}, msg.GetHeader("Subject"))

	var buf bytes.Buffer
	_, err := msg.WriteTo(&buf)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "$80.00")
	assert.Contains(t, buf.String(), "was $100.00")
}

func TestNewSMTPMailerDefaultsFromToUsername(t *testing.T) {
	m := NewSMTPMailer(Config{Host: "smtp.example.com", Port: 587, Username: "bot@example.com"})
	assert.Equal(t, "bot@example.com", m.from)
}
