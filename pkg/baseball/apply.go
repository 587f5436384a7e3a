package baseball

import (
	"fmt"

	"github.com/sandlotlabs/dugout/pkg/rng"
)

// Probability tuning. Quality is the pitcher's stamina rating eroded by
// fatigue; everything downstream is weighted off the batter's ratings.
const (
	baseZoneProb      = 0.30
	zoneQualityWeight = 0.45
	fastballZoneBonus = 0.05
	curveballZoneCost = 0.05
	fatiguePerPitch   = 0.004

	inZoneSwingProb = 0.65
	chaseSwingProb  = 0.30

	chaseContactPenalty = 0.60
	minContactProb      = 0.05
	maxContactProb      = 0.95

	foulWeight    = 0.20
	baseHitWeight = 0.18
	hitPowerSpan  = 0.22

	// Split of the hit share between hit types.
	singleShare = 0.58
	doubleShare = 0.24
	tripleShare = 0.05

	swingPowerSpan = 0.30

	mercyMinInning = 4
)

// Result is the outcome of one accepted action: the successor state, the
// ordered play-by-play events it produced, and the runs it scored for the
// batting team.
type Result struct {
	State      *GameState `json:"state"`
	Events     []string   `json:"events"`
	ScoreDelta int        `json:"scoreDelta"`
}

// Apply resolves one at-bat unit against state and returns the successor.
// It never mutates its input: the state is cloned up front and every
// transition happens on the clone. Randomness comes exclusively from src,
// so a given (state, action, source) triple always resolves identically.
func Apply(state *GameState, action Action, src rng.Source) (*Result, error) {
	if state.Status == StatusComplete {
		return nil, &GameOverError{}
	}
	switch action.Type {
	case ActionPitch, ActionSwing:
	default:
		return nil, &InvalidActionError{Reason: fmt.Sprintf("unknown action type %q", action.Type)}
	}
	if action.Power < 0 || action.Power > 1 {
		return nil, &InvalidActionError{Reason: fmt.Sprintf("swing power %v out of range", action.Power)}
	}
	switch action.PitchType {
	case "", PitchTypeFastball, PitchTypeCurveball, PitchTypeChangeup:
	default:
		return nil, &InvalidActionError{Reason: fmt.Sprintf("unknown pitch type %q", action.PitchType)}
	}

	next := state.Clone()
	if next.Status == StatusPending || next.Status == StatusBetweenHalfInnings {
		next.Status = StatusInProgress
	}

	r := &resolution{
		state: next,
		src:   src,
		res:   &Result{State: next},
	}
	r.run(action)

	return r.res, nil
}

// resolution carries the working state of one at-bat unit.
type resolution struct {
	state *GameState
	src   rng.Source
	res   *Result
}

func (r *resolution) event(format string, args ...interface{}) {
	r.res.Events = append(r.res.Events, fmt.Sprintf(format, args...))
}

// run resolves the pitch and the batter's reaction as one unit.
//
// Draw order is fixed: zone, then (pitch only) the simulated swing
// policy, then contact, then the contact outcome bucket, then the
// cosmetic fielder draw for outs. Tests rely on this order.
func (r *resolution) run(action Action) {
	fielding := r.state.fieldingTeam()
	quality := r.pitchQuality(fielding)
	fielding.PitchCount++

	zoneProb := baseZoneProb + zoneQualityWeight*quality
	switch action.PitchType {
	case PitchTypeFastball:
		zoneProb += fastballZoneBonus
	case PitchTypeCurveball:
		zoneProb -= curveballZoneCost
	}
	inZone := r.src.Float64() < zoneProb

	// A swing action is a committed swing; a pitch action simulates the
	// batter's policy, with chases well below in-zone swing rates.
	swings := true
	if action.Type == ActionPitch {
		if inZone {
			swings = r.src.Float64() < inZoneSwingProb
		} else {
			swings = r.src.Float64() < chaseSwingProb
		}
	}

	if !swings {
		if inZone {
			r.event("Called strike.")
			r.onStrike()
		} else {
			r.onBall()
		}
		return
	}

	batter := r.state.battingTeam().CurrentBatter()
	contactProb := clamp(float64(batter.Contact)/100, minContactProb, maxContactProb)
	if !inZone {
		contactProb *= chaseContactPenalty
	}
	if r.src.Float64() >= contactProb {
		r.event("Swing and a miss.")
		r.onStrike()
		return
	}

	power := float64(batter.Power) / 100
	if action.Type == ActionSwing && action.Power > 0 {
		power = clamp(power+(action.Power-0.5)*swingPowerSpan, 0, 1)
	}
	hitWeight := baseHitWeight + hitPowerSpan*power

	bucket := r.src.Float64()
	switch {
	case bucket < foulWeight:
		r.onFoul()
	case bucket < foulWeight+hitWeight:
		// Position within the hit share picks the hit type.
		h := (bucket - foulWeight) / hitWeight
		switch {
		case h < singleShare:
			r.onHit(1)
		case h < singleShare+doubleShare:
			r.onHit(2)
		case h < singleShare+doubleShare+tripleShare:
			r.onHit(3)
		default:
			r.onHit(4)
		}
	default:
		r.onFieldedOut()
	}
}

// pitchQuality degrades monotonically with pitches thrown and is clamped
// so outcomes never go degenerate late in a game.
func (r *resolution) pitchQuality(fielding *TeamState) float64 {
	quality := float64(fielding.Pitcher().Stamina)/100 - float64(fielding.PitchCount)*fatiguePerPitch
	return clamp(quality, r.state.Rules.MinPitchQuality, 1)
}

func (r *resolution) onBall() {
	r.state.Balls++
	if r.state.Balls <= 3 {
		r.event("Ball %d.", r.state.Balls)
		return
	}

	batting := r.state.battingTeam()
	batter := &Runner{
		Slot: batting.CurrentBatterIndex,
		Name: batting.CurrentBatter().Name,
	}
	r.event("Ball four. %s walks.", batter.Name)

	// Only forced runners advance: second moves only if first is
	// occupied, third only behind runners on first and second.
	bases := &r.state.Bases
	if bases[0] != nil {
		if bases[1] != nil {
			if bases[2] != nil {
				r.scoreRun(bases[2])
			}
			bases[2] = bases[1]
		}
		bases[1] = bases[0]
	}
	bases[0] = batter

	r.state.Balls = 0
	r.state.Strikes = 0
	r.advanceBatter()
}

func (r *resolution) onStrike() {
	r.state.Strikes++
	if r.state.Strikes <= 2 {
		return
	}

	batting := r.state.battingTeam()
	r.event("Strike three! %s strikes out.", batting.CurrentBatter().Name)
	r.state.Balls = 0
	r.state.Strikes = 0
	r.advanceBatter()
	r.recordOut()
}

func (r *resolution) onFoul() {
	if r.state.Strikes < 2 {
		r.state.Strikes++
		r.event("Foul ball. Strike %d.", r.state.Strikes)
		return
	}
	if r.state.Rules.UnlimitedFouls {
		r.event("Foul ball. Still %d-%d.", r.state.Balls, r.state.Strikes)
		return
	}

	batting := r.state.battingTeam()
	r.event("Foul ball with two strikes. %s is out.", batting.CurrentBatter().Name)
	r.state.Balls = 0
	r.state.Strikes = 0
	r.advanceBatter()
	r.recordOut()
}

func (r *resolution) onHit(baseCount int) {
	batting := r.state.battingTeam()
	batting.Hits++
	batter := &Runner{
		Slot: batting.CurrentBatterIndex,
		Name: batting.CurrentBatter().Name,
	}

	switch baseCount {
	case 1:
		r.event("%s singles.", batter.Name)
	case 2:
		r.event("%s doubles.", batter.Name)
	case 3:
		r.event("%s triples.", batter.Name)
	default:
		r.event("%s hits a home run!", batter.Name)
	}

	// Existing runners advance by the hit's base count and score once
	// they reach or pass third. A runner on second scores on a single,
	// a runner on first scores on a double. Walk the bases from third
	// down so nobody is moved twice. bases[i] is base i+1.
	bases := &r.state.Bases
	for i := 2; i >= 0; i-- {
		runner := bases[i]
		if runner == nil {
			continue
		}
		bases[i] = nil
		if (i+1)+baseCount >= 3 {
			r.scoreRun(runner)
		} else {
			bases[i+baseCount] = runner
		}
	}
	if baseCount >= 4 {
		r.scoreRun(batter)
	} else {
		bases[baseCount-1] = batter
	}

	r.state.Balls = 0
	r.state.Strikes = 0
	r.advanceBatter()
}

// fieldedOutDescriptions are cosmetic: the fielder draw never affects
// state beyond the out itself.
var fieldedOutDescriptions = []string{
	"grounds out to short",
	"grounds out to second",
	"grounds out to third",
	"grounds into an easy out at first",
	"flies out to left",
	"flies out to center",
	"flies out to deep right",
	"lines out to the shortstop",
	"lines out right back to the mound",
	"pops out foul to the catcher",
}

func (r *resolution) onFieldedOut() {
	batting := r.state.battingTeam()
	// Sources must stay below 1, the clamp keeps a draw of exactly 1
	// from indexing past the table.
	idx := int(r.src.Float64() * float64(len(fieldedOutDescriptions)))
	if idx >= len(fieldedOutDescriptions) {
		idx = len(fieldedOutDescriptions) - 1
	}
	r.event("%s %s.", batting.CurrentBatter().Name, fieldedOutDescriptions[idx])
	r.state.Balls = 0
	r.state.Strikes = 0
	r.advanceBatter()
	r.recordOut()
}

func (r *resolution) scoreRun(runner *Runner) {
	batting := r.state.battingTeam()
	batting.Score++
	r.res.ScoreDelta++
	r.event("%s scores.", runner.Name)
}

func (r *resolution) advanceBatter() {
	batting := r.state.battingTeam()
	batting.CurrentBatterIndex = (batting.CurrentBatterIndex + 1) % len(batting.Lineup)
}

// recordOut increments outs and, on the third out, retires the side in
// the same transition so outs are never observable at 3.
func (r *resolution) recordOut() {
	r.state.Outs++
	if r.state.Outs < 3 {
		return
	}
	r.endHalfInning()
}

func (r *resolution) endHalfInning() {
	endedInning := r.state.Inning
	endedHalf := r.state.Half

	r.state.Outs = 0
	r.state.Balls = 0
	r.state.Strikes = 0
	r.state.Bases = [3]*Runner{}

	if r.gameOver(endedInning, endedHalf) {
		r.state.Status = StatusComplete
		r.event("That's the ballgame! Final: %s %d, %s %d.",
			r.state.Home.Name, r.state.Home.Score, r.state.Away.Name, r.state.Away.Score)
		return
	}

	if endedHalf == HalfTop {
		r.state.Half = HalfBottom
		r.event("Middle of the %s. %s coming to bat.", ordinal(endedInning), r.state.Home.Name)
	} else {
		r.state.Half = HalfTop
		r.state.Inning = endedInning + 1
		r.event("End of the %s.", ordinal(endedInning))
	}
	r.state.Status = StatusBetweenHalfInnings
}

// gameOver decides whether the half-inning that just ended finished the
// game. Regulation ends after the bottom of the final scheduled inning
// with an unequal score; in extras any completed half-inning with an
// unequal score ends it. The mercy rule is checked after completed
// innings only.
func (r *resolution) gameOver(endedInning int, endedHalf Half) bool {
	rules := r.state.Rules
	diff := r.state.Home.Score - r.state.Away.Score
	if diff < 0 {
		diff = -diff
	}

	if diff != 0 {
		if endedHalf == HalfBottom && endedInning >= rules.RegulationInnings {
			return true
		}
		if endedInning > rules.RegulationInnings {
			return true
		}
	}

	if rules.MercyRuleRuns > 0 && endedHalf == HalfBottom &&
		endedInning >= mercyMinInning && diff >= rules.MercyRuleRuns {
		return true
	}

	return false
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func ordinal(n int) string {
	switch n % 10 {
	case 1:
		if n%100 != 11 {
			return fmt.Sprintf("%dst", n)
		}
	case 2:
		if n%100 != 12 {
			return fmt.Sprintf("%dnd", n)
		}
	case 3:
		if n%100 != 13 {
			return fmt.Sprintf("%drd", n)
		}
	}
	return fmt.Sprintf("%dth", n)
}
