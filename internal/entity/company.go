package entity

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Channel identifies an outreach delivery channel.
type Channel string

const (
	ChannelWhatsApp Channel = "whatsapp"
	ChannelEmail    Channel = "email"
)

// Channels lists every supported channel in display order.
func Channels() []Channel {
	return []Channel{ChannelWhatsApp, ChannelEmail}
}

// Valid reports whether the channel is one of the supported values.
func (c Channel) Valid() bool {
	return c == ChannelWhatsApp || c == ChannelEmail
}

// ActorRef is the snapshot of a team member stored alongside a record.
type ActorRef struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	Phone string    `json:"phone,omitempty"`
}

// ChannelStatus tracks whether a proposal went out over one channel.
// DateSent and SentBy are set exactly when Sent is true.
type ChannelStatus struct {
	Sent     bool       `json:"sent"`
	DateSent *time.Time `json:"date_sent,omitempty"`
	SentBy   *ActorRef  `json:"sent_by,omitempty"`
}

// OutreachStatus groups the per-channel statuses of a company.
type OutreachStatus struct {
	WhatsApp ChannelStatus `json:"whatsapp"`
	Email    ChannelStatus `json:"email"`
}

// For returns the mutable status for the channel, or nil when unsupported.
func (s *OutreachStatus) For(ch Channel) *ChannelStatus {
	switch ch {
	case ChannelWhatsApp:
		return &s.WhatsApp
	case ChannelEmail:
		return &s.Email
	default:
		return nil
	}
}

// AnySent reports whether at least one channel is marked sent.
func (s OutreachStatus) AnySent() bool {
	return s.WhatsApp.Sent || s.Email.Sent
}

// BothSent reports whether every channel is marked sent.
func (s OutreachStatus) BothSent() bool {
	return s.WhatsApp.Sent && s.Email.Sent
}

// Company is a target organisation the team is pitching a proposal to.
type Company struct {
	ID        uuid.UUID      `json:"id"`
	Name      string         `json:"name"`
	Email     string         `json:"email"`
	Phone     string         `json:"phone"`
	DateAdded time.Time      `json:"date_added"`
	CreatedBy ActorRef       `json:"created_by"`
	Status    OutreachStatus `json:"status"`
	Version   int64          `json:"version"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// ContactFor returns the raw contact value used by the channel.
func (c Company) ContactFor(ch Channel) string {
	switch ch {
	case ChannelWhatsApp:
		return strings.TrimSpace(c.Phone)
	case ChannelEmail:
		return strings.TrimSpace(c.Email)
	default:
		return ""
	}
}

// CompanyStats summarises outreach progress for a set of companies.
type CompanyStats struct {
	Total        int `json:"total"`
	WhatsAppSent int `json:"whatsapp_sent"`
	EmailSent    int `json:"email_sent"`
	BothSent     int `json:"both_sent"`
	AnySent      int `json:"any_sent"`
	NoneSent     int `json:"none_sent"`
}
