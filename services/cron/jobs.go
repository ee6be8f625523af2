package cron

import (
	"context"
	"fmt"

	"github.com/courseloom/lms-api/model"
	"github.com/courseloom/lms-api/utils/auth"
)

// CleanupExpiredTokens removes blacklist entries whose tokens have
// expired anyway and no longer need to be checked.
func (m *CronManager) CleanupExpiredTokens() {
	jobName := "cleanup_expired_tokens"

	blacklist := auth.NewBlacklistService(m.db)
	removed, err := blacklist.CleanupExpiredTokens(context.Background())
	if err != nil {
		m.logJobError(jobName, err)
		return
	}

	m.logJobComplete(jobName, fmt.Sprintf("removed %d expired blacklist entries", removed))
}

// DeactivateStaleEnrollments flags enrollments of deactivated courses as
// inactive so they stop counting toward student course lists.
func (m *CronManager) DeactivateStaleEnrollments() {
	jobName := "deactivate_stale_enrollments"

	result := m.db.Model(&model.Enrollment{}).
		Where("is_active = ?", true).
		Where("course_id IN (?)", m.db.Model(&model.Course{}).Select("id").Where("is_active = ?", false)).
		Update("is_active", false)
	if result.Error != nil {
		m.logJobError(jobName, result.Error)
		return
	}

	m.logJobComplete(jobName, fmt.Sprintf("deactivated %d enrollments", result.RowsAffected))
}
