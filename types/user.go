package types

import "time"

// User is a moderator account. Clients without an account are anonymous and never persisted.
type User struct {
	Username     string    `json:"username" gorm:"primaryKey"`
	PasswordHash string    `json:"password_hash"`
	Role         string    `json:"role"`
	Email        string    `json:"email" gorm:"index"` // used for OIDC logins
	CreatedAt    time.Time `json:"created_at"`
}

// PermanentBan is the Duration value of a ban that never expires.
const PermanentBan = -2 * time.Second

type Ban struct {
	Id        int           `json:"id" gorm:"primaryKey;autoIncrement"`
	IPID      string        `json:"ipid" gorm:"column:ipid;index"`
	HWID      string        `json:"hwid" gorm:"column:hwid;index"`
	IP        string        `json:"ip"`
	Time      time.Time     `json:"time"`
	Reason    string        `json:"reason"`
	Duration  time.Duration `json:"duration"`
	Moderator string        `json:"moderator"`
	Revoked   bool          `json:"revoked"`
}

// Active reports whether the ban is in effect at the given time.
func (b *Ban) Active(now time.Time) bool {
	if b == nil || b.Revoked {
		return false
	}
	if b.Duration == PermanentBan {
		return true
	}
	return b.Time.Add(b.Duration).After(now)
}

// Expires returns the zero time for permanent bans.
func (b *Ban) Expires() time.Time {
	if b.Duration == PermanentBan {
		return time.Time{}
	}
	return b.Time.Add(b.Duration)
}
