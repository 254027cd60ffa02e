package services

import (
	"fmt"
	"html/template"
	"log"
	"strings"
	"time"

	"submission-review-api/config"
	"submission-review-api/models"

	"gorm.io/gorm"
)

// Notification template kinds.
const (
	NotifySubmissionCreated = "submission_created"
	NotifyStatusChanged     = "status_changed"
	NotifyPosterUpdated     = "poster_updated"
	NotifyClassification    = "classification"
)

// NotificationService persists in-app notifications and mirrors them to
// email. Email failures are logged and never fail the caller.
type NotificationService struct {
	db       *gorm.DB
	sendMail func(to []string, subject, html string) error
}

func NewNotificationService(db *gorm.DB) *NotificationService {
	return &NotificationService{db: db, sendMail: config.SendMail}
}

// Notify stores one notification row and emails the recipient when an
// address can be resolved.
func (s *NotificationService) Notify(userID int, kind, title, message string, submissionID *int) {
	var related *uint
	if submissionID != nil {
		v := uint(*submissionID)
		related = &v
	}

	n := models.Notification{
		UserID:              uint(userID),
		Title:               title,
		Message:             message,
		Type:                kindToType(kind),
		RelatedSubmissionID: related,
		IsRead:              false,
		CreateAt:            time.Now(),
	}
	if err := s.db.Create(&n).Error; err != nil {
		log.Printf("notification insert failed (user=%d kind=%s): %v", userID, kind, err)
		return
	}

	var user models.User
	if err := s.db.Select("user_id", "user_fname", "user_lname", "email").
		Where("user_id = ? AND delete_at IS NULL", userID).
		First(&user).Error; err != nil {
		return
	}
	if user.Email == "" {
		return
	}

	go func() {
		html := buildEmailHTML(title, user.FullName(), message)
		if err := s.sendMail([]string{user.Email}, title, html); err != nil {
			log.Printf("notification email send failed (subject=%q to=%s): %v", title, user.Email, err)
		}
	}()
}

// NotifyAdmins delivers one notification to every admin user. Used by
// classification, which emits a single event per call.
func (s *NotificationService) NotifyAdmins(kind, title, message string) {
	var admins []models.User
	if err := s.db.Where("delete_at IS NULL").Find(&admins).Error; err != nil {
		log.Printf("admin notification lookup failed: %v", err)
		return
	}
	for _, admin := range admins {
		if !isAdminUser(&admin) {
			continue
		}
		s.Notify(admin.UserID, kind, title, message, nil)
	}
}

func kindToType(kind string) string {
	switch kind {
	case NotifyStatusChanged, NotifyClassification:
		return "success"
	default:
		return "info"
	}
}

func buildEmailHTML(subject, recipientName, message string) string {
	name := strings.TrimSpace(recipientName)
	if name == "" {
		name = "Participante"
	}

	escapedSubject := template.HTMLEscapeString(subject)
	escapedGreeting := template.HTMLEscapeString(fmt.Sprintf("Prezado(a) %s,", name))
	escapedMessage := template.HTMLEscapeString(strings.TrimSpace(message))
	escapedMessage = strings.ReplaceAll(strings.ReplaceAll(escapedMessage, "\r\n", "\n"), "\r", "\n")
	escapedMessage = strings.ReplaceAll(escapedMessage, "\n", "<br />")

	return fmt.Sprintf(`<!DOCTYPE html>
<html lang="pt-BR">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>%s</title>
</head>
<body style="margin:0;padding:0;background-color:#f9fafb;font-family:'Segoe UI',Tahoma,Arial,sans-serif;">
<div style="max-width:640px;margin:0 auto;padding:24px 20px;">
  <div style="background-color:#ffffff;border:1px solid #e5e7eb;border-radius:12px;padding:24px;">
    <p style="margin:0 0 16px 0;font-size:16px;line-height:1.7;color:#111827;">%s</p>
    <p style="margin:0;font-size:16px;line-height:1.7;color:#111827;word-break:break-word;">%s</p>
  </div>
</div>
</body>
</html>`, escapedSubject, escapedGreeting, escapedMessage)
}
