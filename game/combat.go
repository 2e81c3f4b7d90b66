package game

const maxLuck = 9

func (r *resolver) attack(a Attack) error {
	if a.Move != nil && len(a.Move.Path) > 1 {
		if u, ok := r.gs.Units[a.Attacker]; ok && u.Class.IsIndirect() {
			return r.fail("%s %d cannot move and fire in one action", u.Class, u.ID)
		}
	}
	attacker, done, err := r.leadingMove(a.Move, a.Attacker)
	if err != nil || done {
		return err
	}
	if attacker.Loaded() {
		return r.fail("unit %d cannot fire from inside a transport", attacker.ID)
	}

	defender, ok := r.gs.Units[a.Defender]
	if !ok || defender.Loaded() {
		return r.fail("target %d is not on the map", a.Defender)
	}
	if r.gs.Allied(attacker.Owner, defender.Owner) {
		return r.fail("unit %d cannot attack allied unit %d", attacker.ID, defender.ID)
	}

	stats := attacker.Class.Stats()
	dist := attacker.Pos.Distance(defender.Pos)
	if stats.MaxRange == 0 || dist < stats.MinRange || dist > stats.MaxRange {
		return r.fail("target %d at distance %d is out of range %d-%d", defender.ID, dist, stats.MinRange, stats.MaxRange)
	}
	if !Visible(r.gs, attacker.Owner, defender.Pos) {
		return r.fail("target %d at %s is not visible", defender.ID, defender.Pos)
	}
	base, usesAmmo, ok := weapon(attacker, defender.Class)
	if !ok {
		return r.fail("%s has no weapon against %s", attacker.Class, defender.Class)
	}

	var attackLuck, counterLuck *int
	if a.Luck != nil {
		attackLuck, counterLuck = &a.Luck.Attack, &a.Luck.Counter
	}

	hp, err := r.strike(attacker, defender, base, attackLuck, a.Recorded.DefenderHP)
	if err != nil {
		return err
	}
	if usesAmmo {
		attacker.Ammo--
	}
	if attacker.Ammo, err = r.reconcile("attacker ammo", attacker.Ammo, a.Recorded.AttackerAmmo, nil); err != nil {
		return err
	}
	r.emit(UnitDamaged{Unit: defender.ID, Attacker: attacker.ID, Damage: defender.HP - hp, HP: hp})
	defender.HP = hp

	if defender.HP > 0 {
		counterBase, counterAmmo, canCounter := weapon(defender, attacker.Class)
		canCounter = canCounter && !defender.Class.IsIndirect() && dist == 1
		if canCounter {
			hp, err := r.strike(defender, attacker, counterBase, counterLuck, a.Recorded.AttackerHP)
			if err != nil {
				return err
			}
			if counterAmmo {
				defender.Ammo--
			}
			r.emit(UnitDamaged{Unit: attacker.ID, Attacker: defender.ID, Damage: attacker.HP - hp, HP: hp})
			attacker.HP = hp
		} else if a.Recorded.AttackerHP != nil && !sameDisplayHP(*a.Recorded.AttackerHP, attacker.HP) {
			if r.gs.Rules.Strict {
				return r.fail("recorded attacker hp %d but unit %d cannot counter", *a.Recorded.AttackerHP, defender.ID)
			}
			attacker.HP = *a.Recorded.AttackerHP
		}
		if defender.Ammo, err = r.reconcile("defender ammo", defender.Ammo, a.Recorded.DefenderAmmo, nil); err != nil {
			return err
		}
	}

	attacker.Acted = true
	attackerOwner, defenderOwner := attacker.Owner, defender.Owner
	if defender.HP <= 0 {
		r.destroyUnit(defender)
	}
	if attacker.HP <= 0 {
		r.destroyUnit(attacker)
	}
	r.checkRout(defenderOwner, attackerOwner)
	r.checkRout(attackerOwner, defenderOwner)
	return nil
}

// strike resolves one blow and returns the target's HP afterwards. With a
// luck roll the result is computed exactly. Without one the recorded result
// is used, and in strict mode it must lie within what luck 0..9 can produce.
func (r *resolver) strike(from, to *Unit, base int, luck *int, recorded *int) (int, error) {
	tile := r.gs.Tile(to.Pos)
	after := func(l int) int {
		return max(0, to.HP-Damage(base, l, from.HP, to.HP, to.Class, tile.Terrain))
	}

	if luck != nil {
		if *luck < 0 || *luck > maxLuck {
			return 0, r.fail("luck roll %d outside 0-%d", *luck, maxLuck)
		}
		return r.reconcile("hp", after(*luck), recorded, sameDisplayHP)
	}
	if recorded == nil {
		return 0, r.fail("attack by unit %d has neither a luck roll nor a recorded result", from.ID)
	}
	if *recorded < 0 || *recorded > to.HP {
		return 0, r.fail("recorded hp %d for unit %d outside 0-%d", *recorded, to.ID, to.HP)
	}
	if r.gs.Rules.Strict {
		best, worst := DisplayHP(after(maxLuck)), DisplayHP(after(0))
		if shown := DisplayHP(*recorded); shown < best || shown > worst {
			return 0, r.fail("recorded hp %d for unit %d outside the reachable %d-%d", shown, to.ID, best, worst)
		}
	}
	return *recorded, nil
}
