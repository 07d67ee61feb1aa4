package notifier

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

type recordingNotifier struct {
	got []Notification
	err error
}

func (r *recordingNotifier) Notify(ctx context.Context, n Notification) error {
	r.got = append(r.got, n)
	return r.err
}

func sample(kind Kind) Notification {
	return Notification{
		Kind:           kind,
		EventSlug:      "agape26",
		EventTitle:     "Agape 26",
		RegistrationID: "ticket-1",
		AttendeeName:   "Ada Obi",
		CouponCode:     "AGAPE26-7K2M9QAZ",
		At:             time.Date(2026, 2, 14, 18, 30, 0, 0, time.UTC),
	}
}

func TestMultiDeliversToAll(t *testing.T) {
	ok := &recordingNotifier{}
	failing := &recordingNotifier{err: errors.New("boom")}

	err := Multi{ok, nil, failing}.Notify(context.Background(), sample(KindCheckedIn))
	if err == nil || !strings.Contains(err.Error(), "boom") {
		t.Fatalf("expected joined error, got %v", err)
	}
	if len(ok.got) != 1 || len(failing.got) != 1 {
		t.Errorf("expected both notifiers to be called, got %d and %d", len(ok.got), len(failing.got))
	}
}

func TestDiscordMessage(t *testing.T) {
	msg := discordMessage(sample(KindRedeemed))
	for _, want := range []string{"Coupon redeemed", "Agape 26", "Ada Obi", "AGAPE26-7K2M9QAZ", "18:30:00"} {
		if !strings.Contains(msg, want) {
			t.Errorf("expected message to contain %q, got %q", want, msg)
		}
	}

	n := sample(KindCheckedIn)
	n.CouponCode = ""
	if strings.Contains(discordMessage(n), "Coupon") {
		t.Error("check-in without coupon should not mention a coupon")
	}
}

func TestDiscordNotifierRequiresSession(t *testing.T) {
	if err := NewDiscordNotifier(nil, "chan").Notify(context.Background(), sample(KindRegistered)); err == nil {
		t.Error("expected error for nil session")
	}
	if _, err := NewDiscordFromToken("", ""); err == nil {
		t.Error("expected error for missing token")
	}
}

func TestPublishing(t *testing.T) {
	n := sample(KindRegistered)
	msg, err := publishing(n)
	if err != nil {
		t.Fatalf("publishing returned error: %v", err)
	}

	if msg.DeliveryMode != amqp.Persistent {
		t.Errorf("expected persistent delivery")
	}
	if msg.Type != string(KindRegistered) {
		t.Errorf("unexpected type %q", msg.Type)
	}

	var decoded Notification
	if err := json.Unmarshal(msg.Body, &decoded); err != nil {
		t.Fatalf("body is not json: %v", err)
	}
	if decoded.RegistrationID != n.RegistrationID || decoded.Kind != n.Kind {
		t.Errorf("unexpected body %+v", decoded)
	}
}
