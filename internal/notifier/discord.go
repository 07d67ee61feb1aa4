package notifier

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"
)

type DiscordNotifier struct {
	session   *discordgo.Session
	channelID string
}

func NewDiscordNotifier(session *discordgo.Session, channelID string) *DiscordNotifier {
	return &DiscordNotifier{
		session:   session,
		channelID: channelID,
	}
}

// NewDiscordFromToken builds a REST-only session; no gateway connection is opened.
func NewDiscordFromToken(botToken, channelID string) (*DiscordNotifier, error) {
	if botToken == "" || channelID == "" {
		return nil, fmt.Errorf("discord bot token and channel ID are required")
	}
	session, err := discordgo.New("Bot " + botToken)
	if err != nil {
		return nil, fmt.Errorf("create discord session: %w", err)
	}
	return NewDiscordNotifier(session, channelID), nil
}

func (n *DiscordNotifier) Notify(ctx context.Context, note Notification) error {
	if n.session == nil {
		return fmt.Errorf("discord session is nil")
	}
	if n.channelID == "" {
		return fmt.Errorf("discord channel ID is empty")
	}

	if _, err := n.session.ChannelMessageSend(n.channelID, discordMessage(note), discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("send discord message: %w", err)
	}
	return nil
}

func discordMessage(n Notification) string {
	switch n.Kind {
	case KindRegistered:
		return fmt.Sprintf("🎟️ **New registration** for %s\n**Attendee:** %s\n**Ticket:** `%s`",
			n.EventTitle, n.AttendeeName, n.RegistrationID)
	case KindCheckedIn:
		msg := fmt.Sprintf("✅ **Checked in** at %s\n**Attendee:** %s\n**Time:** %s",
			n.EventTitle, n.AttendeeName, n.At.Format("15:04:05"))
		if n.CouponCode != "" {
			msg += fmt.Sprintf("\n**Coupon:** `%s`", n.CouponCode)
		}
		return msg
	case KindRedeemed:
		return fmt.Sprintf("🍽️ **Coupon redeemed** at %s\n**Attendee:** %s\n**Coupon:** `%s`\n**Time:** %s",
			n.EventTitle, n.AttendeeName, n.CouponCode, n.At.Format("15:04:05"))
	default:
		return fmt.Sprintf("%s: %s (%s)", n.Kind, n.AttendeeName, n.EventTitle)
	}
}
