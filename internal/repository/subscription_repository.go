package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/iliyamo/streamtube/internal/model"
)

// SubscriptionRepo persists channel subscriptions and builds the aggregated
// channel profile view.
type SubscriptionRepo struct{ DB *sql.DB }

func NewSubscriptionRepo(db *sql.DB) *SubscriptionRepo { return &SubscriptionRepo{DB: db} }

// Toggle flips the subscriber's subscription to a channel.  Returns true
// when the subscription exists after the call.
func (r *SubscriptionRepo) Toggle(ctx context.Context, subscriberID, channelID uint64) (bool, error) {
	res, err := r.DB.ExecContext(ctx,
		"DELETE FROM subscriptions WHERE subscriber_id=? AND channel_id=?", subscriberID, channelID)
	if err != nil {
		return false, err
	}
	if n, err := res.RowsAffected(); err != nil {
		return false, err
	} else if n > 0 {
		return false, nil
	}
	_, err = r.DB.ExecContext(ctx,
		"INSERT INTO subscriptions (subscriber_id, channel_id) VALUES (?,?)", subscriberID, channelID)
	if err != nil {
		if isDuplicate(err) {
			return true, nil
		}
		return false, err
	}
	return true, nil
}

// ChannelProfile assembles the public channel view for a user name:
// identity fields, subscriber counts and whether viewerID is subscribed.
// viewerID may be zero for anonymous viewers.  Returns sql.ErrNoRows when
// the channel does not exist.
func (r *SubscriptionRepo) ChannelProfile(ctx context.Context, userName string, viewerID uint64) (model.ChannelProfile, error) {
	userName = strings.ToLower(strings.TrimSpace(userName))
	var p model.ChannelProfile
	err := r.DB.QueryRowContext(ctx, `
		SELECT u.id, u.user_name, u.full_name, u.avatar_url, u.cover_url,
		       (SELECT COUNT(*) FROM subscriptions s WHERE s.channel_id = u.id),
		       (SELECT COUNT(*) FROM subscriptions s WHERE s.subscriber_id = u.id),
		       EXISTS(SELECT 1 FROM subscriptions s WHERE s.channel_id = u.id AND s.subscriber_id = ?)
		FROM users u WHERE u.user_name = ? LIMIT 1`,
		viewerID, userName).
		Scan(&p.UserID, &p.UserName, &p.FullName, &p.AvatarURL, &p.CoverURL,
			&p.SubscriberCount, &p.SubscribedTo, &p.IsSubscribed)
	if err != nil {
		return model.ChannelProfile{}, err
	}
	return p, nil
}
