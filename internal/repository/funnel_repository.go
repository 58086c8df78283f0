package repository

import (
	"database/sql"
	"time"

	"github.com/lipanasa/reminders-backend/internal/model"
)

type FunnelRepositoryInterface interface {
	ListActiveTemplates() ([]*model.FunnelTemplate, error)
	UsersAtDay(day int, now time.Time) ([]*model.TrialUser, error)
	UpsertStatus(st *model.FunnelStatus) (bool, error)
}

type FunnelRepository struct {
	DB *sql.DB
}

// ListActiveTemplates returns the active lifecycle templates ordered by day.
// The day numbers form a sparse set, not a continuous range.
func (r *FunnelRepository) ListActiveTemplates() ([]*model.FunnelTemplate, error) {
	query := `
        SELECT id, day_number, phase, active, whatsapp_template, email_subject,
               email_template, sms_template, updated_at
        FROM funnel_templates
        WHERE active = true
        ORDER BY day_number
    `
	rows, err := r.DB.Query(query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	templates := []*model.FunnelTemplate{}
	for rows.Next() {
		var t model.FunnelTemplate
		if err := rows.Scan(
			&t.ID, &t.DayNumber, &t.Phase, &t.Active, &t.WhatsAppTemplate,
			&t.EmailSubject, &t.EmailTemplate, &t.SMSTemplate, &t.UpdatedAt,
		); err != nil {
			return nil, err
		}
		templates = append(templates, &t)
	}
	return templates, rows.Err()
}

// UsersAtDay finds users whose derived funnel day equals the given day and
// who have no status row for it yet. Day numbers clamp at MaxFunnelDay, so
// the final day catches everyone at or past it.
func (r *FunnelRepository) UsersAtDay(day int, now time.Time) ([]*model.TrialUser, error) {
	upper := now.Add(-time.Duration(day) * 24 * time.Hour)
	lower := now.Add(-time.Duration(day+1) * 24 * time.Hour)

	query := `
        SELECT u.id, u.name, u.phone, u.email, u.trial_start_date
        FROM users u
        LEFT JOIN funnel_statuses fs ON fs.user_id = u.id AND fs.day_number = $1
        WHERE fs.user_id IS NULL
          AND u.trial_start_date > $2 AND u.trial_start_date <= $3
    `
	args := []interface{}{day, lower, upper}
	if day >= model.MaxFunnelDay {
		query = `
        SELECT u.id, u.name, u.phone, u.email, u.trial_start_date
        FROM users u
        LEFT JOIN funnel_statuses fs ON fs.user_id = u.id AND fs.day_number = $1
        WHERE fs.user_id IS NULL
          AND u.trial_start_date <= $2
    `
		args = []interface{}{day, upper}
	}

	rows, err := r.DB.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := []*model.TrialUser{}
	for rows.Next() {
		var u model.TrialUser
		if err := rows.Scan(&u.ID, &u.Name, &u.Phone, &u.Email, &u.TrialStartDate); err != nil {
			return nil, err
		}
		users = append(users, &u)
	}
	return users, rows.Err()
}

// UpsertStatus writes the one-row-per-(user, day) record. ON CONFLICT DO
// NOTHING keeps the first delivery: lifecycle messages are at-most-once per
// day per user. Returns false when the row already existed.
func (r *FunnelRepository) UpsertStatus(st *model.FunnelStatus) (bool, error) {
	query := `
        INSERT INTO funnel_statuses (user_id, day_number, channel, status, error, sent_at)
        VALUES ($1, $2, $3, $4, $5, $6)
        ON CONFLICT (user_id, day_number) DO NOTHING
    `
	res, err := r.DB.Exec(query, st.UserID, st.DayNumber, st.Channel, st.Status, st.Error, st.SentAt)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

var _ FunnelRepositoryInterface = (*FunnelRepository)(nil)
