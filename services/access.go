package services

import (
	"submission-review-api/models"
	"submission-review-api/utils"

	"gorm.io/gorm"
)

func isAdminUser(u *models.User) bool {
	return utils.IsAdmin(u.RoleID, u.Roles)
}

func isEvaluatorUser(u *models.User) bool {
	return utils.IsEvaluator(u.RoleID, u.Roles)
}

// CanReviewOrView reports whether the caller may read submission detail,
// record scores or download the poster: admins always, evaluators only
// while they hold an active assignment.
func CanReviewOrView(db *gorm.DB, user *models.User, submissionID int) (bool, error) {
	if isAdminUser(user) {
		return true, nil
	}

	var count int64
	err := db.Model(&models.EvaluatorAssignment{}).
		Where("submission_id = ? AND evaluator_id = ? AND revoked_at IS NULL", submissionID, user.UserID).
		Count(&count).Error
	if err != nil {
		return false, storageError("assignment lookup", err)
	}
	return count > 0, nil
}
