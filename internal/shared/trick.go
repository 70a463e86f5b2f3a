package shared

// Trick represents a single trick: the led card and the answering card,
// each identified by handle, plus the side that led.
type Trick struct {
	Leader       Side       `json:"leader"`
	LeadHandle   CardHandle `json:"lead_handle"`
	FollowHandle CardHandle `json:"follow_handle"`
}

// ResolveTrick determines the winner of a trick per Elfern rules.
//
// When both cards share a suit the higher normalized rank wins, with one
// override: the 7 beats the ace of its own suit. The override is
// symmetric, applying whichever side played the 7 and regardless of
// who led. When the suits differ the leader wins; the follower either
// was not required to follow suit (stock phase) or chose not to.
//
// ResolveTrick is a pure function: no draws, exactly one winner.
func ResolveTrick(leader Side, leadCard, followCard Card) Side {
	follower := leader.Other()

	if leadCard.Suit != followCard.Suit {
		return leader
	}

	// 7 beats ace of the same suit.
	if leadCard.Rank == Rank7 && followCard.Rank == RankAce {
		return leader
	}
	if leadCard.Rank == RankAce && followCard.Rank == Rank7 {
		return follower
	}

	if NormalizedRank(followCard.Rank) > NormalizedRank(leadCard.Rank) {
		return follower
	}
	return leader
}
