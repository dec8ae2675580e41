package session

// Badge names. A badge is a one-way flag: once held it is never revoked.
const (
	BadgeFirst10       = "First 10"
	BadgeHalfCentury   = "Half Century"
	BadgeCenturyMaster = "Century Master"
	BadgeWeekWarrior   = "Week Warrior"
	BadgeMonthlyMaster = "Monthly Master"
)

// DeriveBadges computes the badge set after a successful expense add.
// expenseCount and streak are the values after the add. Count badges
// require exact equality, so a restored store that jumps straight past a
// threshold does not retroactively award it; streak badges are threshold
// based. The input slice is not modified.
func DeriveBadges(prior []string, expenseCount int, streak int) []string {
	badges := make([]string, len(prior))
	copy(badges, prior)

	award := func(name string) {
		for _, b := range badges {
			if b == name {
				return
			}
		}
		badges = append(badges, name)
	}

	switch expenseCount {
	case 10:
		award(BadgeFirst10)
	case 50:
		award(BadgeHalfCentury)
	case 100:
		award(BadgeCenturyMaster)
	}

	if streak >= 7 {
		award(BadgeWeekWarrior)
	}
	if streak >= 30 {
		award(BadgeMonthlyMaster)
	}

	return badges
}
