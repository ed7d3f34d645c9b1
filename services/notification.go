package services

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"time"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"go.uber.org/zap"
	"google.golang.org/api/option"

	"potbuddy-backend/config"
	"potbuddy-backend/models"
)

// Notifier tells users about ledger events. Implementations must not block
// the caller on delivery.
type Notifier interface {
	InvitationCreated(ctx context.Context, inviter models.User, inv models.Invitation)
	BuddyAdded(ctx context.Context, adder, buddy models.User)
	SettlementCreated(ctx context.Context, st models.Settlement, winner, loser models.User)
}

type emailSender interface {
	Send(ctx context.Context, toEmail, toName, subject, html string) error
}

type pushSender interface {
	Send(ctx context.Context, token, title, body string, data map[string]string) error
}

// NotificationService delivers email through SendGrid and push through
// Firebase Cloud Messaging. Either channel is skipped when unconfigured.
type NotificationService struct {
	email   emailSender
	push    pushSender
	appName string
	appURL  string
	log     *zap.SugaredLogger
	timeout time.Duration
}

var _ Notifier = (*NotificationService)(nil)

func NewNotificationService(ctx context.Context, cfg *config.Config, log *zap.SugaredLogger) *NotificationService {
	ns := &NotificationService{
		appName: cfg.AppName,
		appURL:  cfg.AppURL,
		log:     log,
		timeout: 10 * time.Second,
	}

	if cfg.SendGridAPIKey != "" {
		ns.email = &sendGridSender{
			client: sendgrid.NewSendClient(cfg.SendGridAPIKey),
			from:   mail.NewEmail(cfg.AppName, cfg.SendGridFrom),
		}
	} else {
		log.Warn("SENDGRID_API_KEY not set, email notifications disabled")
	}

	if cfg.FirebaseCredPath != "" {
		push, err := newFCMSender(ctx, cfg.FirebaseCredPath)
		if err != nil {
			log.Warnw("firebase unavailable, push notifications disabled", "error", err)
		} else {
			ns.push = push
		}
	}
	return ns
}

// ============================================================
// CHANNELS
// ============================================================

type sendGridSender struct {
	client *sendgrid.Client
	from   *mail.Email
}

func (s *sendGridSender) Send(ctx context.Context, toEmail, toName, subject, html string) error {
	msg := mail.NewSingleEmail(s.from, subject, mail.NewEmail(toName, toEmail), subject, html)
	resp, err := s.client.SendWithContext(ctx, msg)
	if err != nil {
		return err
	}
	if resp.StatusCode >= 300 {
		return fmt.Errorf("sendgrid returned status %d", resp.StatusCode)
	}
	return nil
}

type fcmSender struct {
	client *messaging.Client
}

func newFCMSender(ctx context.Context, credentialsFile string) (*fcmSender, error) {
	app, err := firebase.NewApp(ctx, nil, option.WithCredentialsFile(credentialsFile))
	if err != nil {
		return nil, fmt.Errorf("firebase app: %w", err)
	}
	client, err := app.Messaging(ctx)
	if err != nil {
		return nil, fmt.Errorf("firebase messaging: %w", err)
	}
	return &fcmSender{client: client}, nil
}

func (s *fcmSender) Send(ctx context.Context, token, title, body string, data map[string]string) error {
	_, err := s.client.Send(ctx, &messaging.Message{
		Token:        token,
		Notification: &messaging.Notification{Title: title, Body: body},
		Data:         data,
	})
	return err
}

// dispatch runs delivery in the background with its own deadline, so a slow
// provider never holds up a request.
func (ns *NotificationService) dispatch(fn func(ctx context.Context)) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), ns.timeout)
		defer cancel()
		fn(ctx)
	}()
}

func (ns *NotificationService) sendEmail(ctx context.Context, to models.User, subject, html string) {
	if ns.email == nil || to.Email == "" {
		return
	}
	if err := ns.email.Send(ctx, to.Email, to.DisplayName(), subject, html); err != nil {
		ns.log.Warnw("email failed", "to", to.Email, "error", err)
		return
	}
	ns.log.Debugw("email sent", "to", to.Email)
}

func (ns *NotificationService) sendPush(ctx context.Context, to models.User, title, body string, data map[string]string) {
	if ns.push == nil || to.FCMToken == "" {
		return
	}
	if err := ns.push.Send(ctx, to.FCMToken, title, body, data); err != nil {
		ns.log.Warnw("push failed", "user_id", to.ID, "error", err)
	}
}

// ============================================================
// NOTIFICATION EVENTS
// ============================================================

// InvitationCreated emails someone who has not signed up yet.
func (ns *NotificationService) InvitationCreated(_ context.Context, inviter models.User, inv models.Invitation) {
	subject := fmt.Sprintf("%s wants you as a workout buddy on %s", inviter.DisplayName(), ns.appName)
	html, ok := ns.renderEmail(invitationTmpl, map[string]interface{}{
		"InviterName": inviter.DisplayName(),
		"InviteeName": inv.InviteeName,
		"AppName":     ns.appName,
		"AppURL":      ns.appURL,
	})
	if !ok {
		return
	}
	to := models.User{Email: inv.InviteeEmail, Name: inv.InviteeName}
	ns.dispatch(func(ctx context.Context) { ns.sendEmail(ctx, to, subject, html) })
}

// BuddyAdded tells an existing user they were paired.
func (ns *NotificationService) BuddyAdded(_ context.Context, adder, buddy models.User) {
	title := fmt.Sprintf("%s added you as a buddy", adder.DisplayName())
	ns.dispatch(func(ctx context.Context) {
		ns.sendPush(ctx, buddy, title, "Your shared pot starts at 0. Good luck!", map[string]string{
			"type":    models.ActivityBuddyAdded,
			"user_id": adder.ID.String(),
		})
	})
}

// SettlementCreated tells both members how the week was settled.
func (ns *NotificationService) SettlementCreated(_ context.Context, st models.Settlement, winner, loser models.User) {
	week := st.WeekStartDate.Format("Jan 2")
	data := map[string]string{
		"type":          models.ActivitySettlement,
		"pair_id":       st.PairID.String(),
		"settlement_id": st.ID.String(),
	}
	winSubject := fmt.Sprintf("You won %d from %s", st.Amount, loser.DisplayName())
	loseSubject := fmt.Sprintf("You owe %s %d", winner.DisplayName(), st.Amount)
	winHTML, winOK := ns.renderEmail(settlementTmpl, map[string]interface{}{
		"Name": winner.DisplayName(), "Headline": winSubject, "Week": week, "AppName": ns.appName,
	})
	loseHTML, loseOK := ns.renderEmail(settlementTmpl, map[string]interface{}{
		"Name": loser.DisplayName(), "Headline": loseSubject, "Week": week, "AppName": ns.appName,
	})

	ns.dispatch(func(ctx context.Context) {
		ns.sendPush(ctx, winner, winSubject, "Week of "+week+" settled", data)
		ns.sendPush(ctx, loser, loseSubject, "Week of "+week+" settled", data)
		if winOK {
			ns.sendEmail(ctx, winner, winSubject, winHTML)
		}
		if loseOK {
			ns.sendEmail(ctx, loser, loseSubject, loseHTML)
		}
	})
}

// ============================================================
// EMAIL TEMPLATES
// ============================================================

var invitationTmpl = template.Must(template.New("invitation").Parse(`
<!DOCTYPE html>
<html>
<body style="font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif; max-width: 600px; margin: 0 auto; padding: 20px; background-color: #f5f5f5;">
	<div style="background: white; border-radius: 12px; padding: 32px; box-shadow: 0 2px 8px rgba(0,0,0,0.1);">
		<h2 style="color: #1DB954; margin-top: 0;">You're invited!</h2>
		<p>Hi <strong>{{.InviteeName}}</strong>,</p>
		<p><strong>{{.InviterName}}</strong> wants to keep each other honest on {{.AppName}}. Miss a workout and it costs you; hit your week and your buddy pays.</p>
		<div style="margin: 24px 0;">
			<a href="{{.AppURL}}" style="background: #1DB954; color: white; padding: 12px 32px; border-radius: 8px; text-decoration: none; font-weight: bold;">Join Now</a>
		</div>
		<p style="color: #999; font-size: 12px; margin-top: 24px;">{{.AppName}}</p>
	</div>
</body>
</html>`))

var settlementTmpl = template.Must(template.New("settlement").Parse(`
<!DOCTYPE html>
<html>
<body style="font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif; max-width: 600px; margin: 0 auto; padding: 20px; background-color: #f5f5f5;">
	<div style="background: white; border-radius: 12px; padding: 32px; box-shadow: 0 2px 8px rgba(0,0,0,0.1);">
		<h2 style="color: #1DB954; margin-top: 0;">Week of {{.Week}} settled</h2>
		<p>Hi <strong>{{.Name}}</strong>,</p>
		<p>{{.Headline}}.</p>
		<p>Check the app to see your pots.</p>
		<p style="color: #999; font-size: 12px; margin-top: 24px;">{{.AppName}}</p>
	</div>
</body>
</html>`))

// renderEmail reports false when the template fails; the email is not sent.
func (ns *NotificationService) renderEmail(t *template.Template, data map[string]interface{}) (string, bool) {
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		ns.log.Errorw("email template failed", "template", t.Name(), "error", err)
		return "", false
	}
	return buf.String(), true
}
