package baseball

// Authorized reports whether a team may issue an action against the
// current state. A pitch belongs to the fielding side and a swing to the
// batting side; no other action type is ever authorized. Authority is
// advisory at the team level: any session claiming the entitled team may
// act, and concurrent claimants are arbitrated by the commit step, not
// here.
func Authorized(state *GameState, action Action, claimedTeam Side) bool {
	if claimedTeam != SideHome && claimedTeam != SideAway {
		return false
	}
	switch action.Type {
	case ActionPitch:
		return claimedTeam == state.FieldingSide()
	case ActionSwing:
		return claimedTeam == state.BattingSide()
	default:
		return false
	}
}
