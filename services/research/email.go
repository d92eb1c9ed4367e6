package research

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/smtp"
	"strings"
	"time"

	"github.com/jordan-wright/email"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

type EmailConfig struct {
	Server       string `json:"server"`
	Port         int    `json:"port"`
	EmailAddress string `json:"email_address"`
	Password     string `json:"password"`
}

func writeBulleted(b *strings.Builder, label string, items []string) {
	if len(items) == 0 {
		return
	}
	b.WriteString(label + ":\n")
	for _, item := range items {
		fmt.Fprintf(b, "  - %s\n", item)
	}
	b.WriteString("\n")
}

func renderReportText(report StoredReport) (string, error) {
	b := strings.Builder{}
	fmt.Fprintf(&b, "Keyword: %s\n", report.Keyword)
	fmt.Fprintf(&b, "Generated: %s\n\n", report.CreatedAt.Format(time.RFC1123))

	switch report.Kind {
	case KindCompetition:
		var payload CompetitionReport
		err := json.Unmarshal(report.Payload, &payload)
		if err != nil {
			return "", err
		}
		fmt.Fprintf(&b, "Competition score: %d/100 (%s)\n\n%s\n\n", payload.Score, payload.Tier, payload.Rationale)
		writeBulleted(&b, "Who is winning today", payload.TopCompetitors)
		writeBulleted(&b, "Easier alternatives", payload.EasierAlternatives)
	case KindRanking:
		var payload BlogRanking
		err := json.Unmarshal(report.Payload, &payload)
		if err != nil {
			return "", err
		}
		fmt.Fprintf(&b, "Page: %s\nRanking score: %d/100\n\n", payload.Url, payload.Score)
		writeBulleted(&b, "Strengths", payload.Strengths)
		writeBulleted(&b, "Weaknesses", payload.Weaknesses)
		writeBulleted(&b, "Do next", payload.Actions)
	case KindStrategy:
		var payload StrategyReport
		err := json.Unmarshal(report.Payload, &payload)
		if err != nil {
			return "", err
		}
		b.WriteString(payload.Summary + "\n\n")
		for _, cluster := range payload.Clusters {
			fmt.Fprintf(&b, "%s (%s)\n", cluster.Topic, cluster.Intent)
			for _, title := range cluster.Titles {
				fmt.Fprintf(&b, "  - %s\n", title)
			}
			b.WriteString("\n")
		}
	default:
		b.Write(report.Payload)
		b.WriteString("\n")
	}

	return b.String(), nil
}

// EmailReport sends a stored report to recipient as plain text.
func (s Service) EmailReport(ctx context.Context, slug, recipient string) error {
	ctx, span := tracer.Start(ctx, "EmailReport")
	defer span.End()
	span.SetAttributes(attribute.String("slug", slug))

	recipient = strings.TrimSpace(recipient)
	if !strings.Contains(recipient, "@") {
		return fmt.Errorf("%w: recipient must be an email address", ErrBadInput)
	}
	if s.email.Server == "" {
		return fmt.Errorf("email delivery is not configured")
	}

	report, err := s.GetReport(ctx, slug)
	if err != nil {
		return err
	}
	body, err := renderReportText(*report)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to render report")
		return err
	}

	mail := email.NewEmail()
	mail.From = fmt.Sprintf("SEO Assist <%s>", s.email.EmailAddress)
	mail.To = []string{recipient}
	mail.Subject = fmt.Sprintf("SEO %s report: %s", report.Kind, report.Keyword)
	mail.Text = []byte(body)

	addr := fmt.Sprintf("%s:%d", s.email.Server, s.email.Port)
	err = mail.Send(addr, smtp.PlainAuth("", s.email.EmailAddress, s.email.Password, s.email.Server))
	if err != nil && strings.Contains(err.Error(), "server doesn't support AUTH") {
		err = mail.Send(addr, nil)
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to send email")
		return err
	}

	slog.InfoContext(ctx, "emailed report", "slug", slug, "kind", report.Kind)
	return nil
}
