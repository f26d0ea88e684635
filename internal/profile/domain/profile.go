package domain

import "time"

// OrganizationalRank is the rank recorded on an account profile. Ranks in the
// manager-equivalent set lift a staff credential's effective role to manager.
type OrganizationalRank string

const (
	RankOrdinaryStaff OrganizationalRank = "ORDINARY_STAFF"
	RankTeamLeader    OrganizationalRank = "TEAM_LEADER"
	RankDirector      OrganizationalRank = "DIRECTOR"
)

// ManagerEquivalent reports whether the rank derives a manager effective role.
func (r OrganizationalRank) ManagerEquivalent() bool {
	return r == RankTeamLeader || r == RankDirector
}

// AccountProfile carries per-account organizational attributes. 1:1 with a
// credential; the rank is nullable and only consulted for role derivation.
type AccountProfile struct {
	ID                 string
	CredentialID       string
	OrganizationalRank *OrganizationalRank
	CreatedAt          time.Time
	UpdatedAt          time.Time
}
