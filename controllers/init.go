package controllers

import (
	"submission-review-api/services"
	"submission-review-api/storage"

	"gorm.io/gorm"
)

var (
	notificationService   *services.NotificationService
	callService           *services.CallService
	submissionService     *services.SubmissionService
	assignmentService     *services.AssignmentService
	scoringService        *services.ScoringService
	classificationService *services.ClassificationService
	posterService         *services.PosterService
)

// Init wires the controller package to its services. Called once from main
// after the database and blob store are ready.
func Init(db *gorm.DB, store storage.Store) {
	notificationService = services.NewNotificationService(db)
	callService = services.NewCallService(db)
	submissionService = services.NewSubmissionService(db, notificationService)
	assignmentService = services.NewAssignmentService(db, notificationService)
	scoringService = services.NewScoringService(db)
	classificationService = services.NewClassificationService(db, notificationService)
	posterService = services.NewPosterService(db, store, notificationService)
}
