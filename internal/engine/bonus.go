// internal/engine/bonus.go
//
// Bonus rule evaluation. Each rule fires at most once per round; rewards are
// applied immediately (extra moves clamped so movesLeft never goes negative,
// special spawn targets a uniformly random free cell).

package engine

// applyBonusRules checks every untriggered rule against the stats of the
// resolve that just completed plus the cumulative session counters.
func (r *Round) applyBonusRules(stats resolveStats) {
	for _, rule := range r.cfg.BonusRules {
		if _, done := r.session.Triggered[rule.ID]; done {
			continue
		}
		var fired bool
		switch rule.Trigger {
		case TriggerTotalMatches:
			fired = float64(r.session.Matches) >= rule.Threshold
		case TriggerCombo:
			fired = r.session.Combo >= rule.Threshold
		case TriggerCascade:
			fired = float64(stats.cascades) >= rule.Threshold
		}
		if !fired {
			continue
		}
		r.session.Triggered[rule.ID] = struct{}{}
		r.applyReward(rule.Reward)
		r.hooks.bonusTriggered(rule.ID, rule.Reward)
	}
}

func (r *Round) applyReward(reward BonusReward) {
	if reward.ExtraMoves != 0 {
		r.session.MovesLeft += reward.ExtraMoves
		if r.session.MovesLeft < 0 {
			r.session.MovesLeft = 0
		}
		r.hooks.movesLeftChanged(r.session.MovesLeft)
	}
	if reward.Score != 0 {
		r.session.Score += reward.Score
		r.hooks.scoreDelta(reward.Score)
	}
	if reward.SpawnBlockID != "" {
		r.spawnSpecial(reward.SpawnBlockID)
	}
}

// spawnSpecial places one tile of the given catalog type at a uniformly
// random free, non-blocked cell. No-op when the board is full or the id is
// unknown (the normalizer only admits known ids; this guards direct users).
func (r *Round) spawnSpecial(blockID string) {
	var bt *BlockType
	for i := range r.cfg.BlockTypes {
		if r.cfg.BlockTypes[i].ID == blockID {
			bt = &r.cfg.BlockTypes[i]
			break
		}
	}
	if bt == nil {
		return
	}
	free := r.grid.emptyCells()
	if len(free) == 0 {
		return
	}
	c := free[r.rng.Intn(len(free))]
	r.grid.place(c.Row, c.Col, tileOf(*bt))
}
