package game

// weapon charts: attacker -> defender -> base damage percent.
// A missing entry means the weapon cannot target that class.
type chart map[UnitClass]map[UnitClass]int

var primaryChart = chart{
	Mech: {
		Recon: 85, Tank: 55, MdTank: 15, Neotank: 15, MegaTank: 5, APC: 75,
		Artillery: 70, Rocket: 85, AntiAir: 65, Missile: 85, Piperunner: 55,
	},
	Tank: {
		Recon: 85, Tank: 55, MdTank: 15, Neotank: 15, MegaTank: 10, APC: 75,
		Artillery: 70, Rocket: 85, AntiAir: 65, Missile: 85, Piperunner: 55,
		Battleship: 1, Cruiser: 5, Lander: 10, Sub: 1, BlackBoat: 10, Carrier: 1,
	},
	MdTank: {
		Recon: 105, Tank: 85, MdTank: 55, Neotank: 45, MegaTank: 25, APC: 105,
		Artillery: 105, Rocket: 105, AntiAir: 105, Missile: 105, Piperunner: 85,
		Battleship: 10, Cruiser: 30, Lander: 35, Sub: 10, BlackBoat: 35, Carrier: 10,
	},
	Neotank: {
		Recon: 125, Tank: 105, MdTank: 75, Neotank: 55, MegaTank: 35, APC: 125,
		Artillery: 115, Rocket: 125, AntiAir: 115, Missile: 125, Piperunner: 105,
		Battleship: 15, Cruiser: 30, Lander: 40, Sub: 15, BlackBoat: 40, Carrier: 15,
	},
	MegaTank: {
		Recon: 195, Tank: 180, MdTank: 125, Neotank: 115, MegaTank: 65, APC: 195,
		Artillery: 195, Rocket: 195, AntiAir: 195, Missile: 195, Piperunner: 180,
		Battleship: 45, Cruiser: 65, Lander: 75, Sub: 45, BlackBoat: 105, Carrier: 45,
	},
	Artillery: {
		Infantry: 90, Mech: 85, Recon: 80, Tank: 70, MdTank: 45, Neotank: 40, MegaTank: 15,
		APC: 70, Artillery: 75, Rocket: 80, AntiAir: 75, Missile: 80, Piperunner: 70,
		Battleship: 40, Cruiser: 50, Lander: 55, Sub: 60, BlackBoat: 55, Carrier: 45,
	},
	Rocket: {
		Infantry: 95, Mech: 90, Recon: 90, Tank: 80, MdTank: 55, Neotank: 50, MegaTank: 25,
		APC: 80, Artillery: 80, Rocket: 85, AntiAir: 85, Missile: 90, Piperunner: 80,
		Battleship: 55, Cruiser: 60, Lander: 60, Sub: 85, BlackBoat: 60, Carrier: 60,
	},
	AntiAir: {
		Infantry: 105, Mech: 105, Recon: 60, Tank: 25, MdTank: 10, Neotank: 5, MegaTank: 1,
		APC: 50, Artillery: 50, Rocket: 55, AntiAir: 45, Missile: 55, Piperunner: 25,
		BCopter: 120, TCopter: 120, Fighter: 65, Bomber: 75, Stealth: 75, BlackBomb: 120,
	},
	Missile: {
		BCopter: 120, TCopter: 120, Fighter: 100, Bomber: 100, Stealth: 100, BlackBomb: 120,
	},
	Piperunner: {
		Infantry: 95, Mech: 90, Recon: 90, Tank: 80, MdTank: 55, Neotank: 50, MegaTank: 25,
		APC: 80, Artillery: 80, Rocket: 85, AntiAir: 85, Missile: 90, Piperunner: 80,
		BCopter: 105, TCopter: 105, Fighter: 65, Bomber: 75, Stealth: 75, BlackBomb: 120,
		Battleship: 55, Cruiser: 60, Lander: 60, Sub: 85, BlackBoat: 60, Carrier: 60,
	},
	BCopter: {
		Recon: 55, Tank: 55, MdTank: 25, Neotank: 20, MegaTank: 10, APC: 60,
		Artillery: 65, Rocket: 65, AntiAir: 25, Missile: 65, Piperunner: 55,
		Battleship: 25, Cruiser: 55, Lander: 25, Sub: 25, BlackBoat: 25, Carrier: 25,
	},
	Fighter: {
		BCopter: 100, TCopter: 100, Fighter: 55, Bomber: 100, Stealth: 85, BlackBomb: 120,
	},
	Bomber: {
		Infantry: 110, Mech: 110, Recon: 105, Tank: 105, MdTank: 95, Neotank: 90, MegaTank: 35,
		APC: 105, Artillery: 105, Rocket: 105, AntiAir: 95, Missile: 105, Piperunner: 105,
		Battleship: 75, Cruiser: 85, Lander: 95, Sub: 95, BlackBoat: 95, Carrier: 75,
	},
	Stealth: {
		Infantry: 90, Mech: 90, Recon: 85, Tank: 75, MdTank: 70, Neotank: 60, MegaTank: 15,
		APC: 85, Artillery: 75, Rocket: 85, AntiAir: 50, Missile: 85, Piperunner: 80,
		BCopter: 85, TCopter: 95, Fighter: 45, Bomber: 70, Stealth: 55, BlackBomb: 120,
		Battleship: 45, Cruiser: 35, Lander: 65, Sub: 55, BlackBoat: 65, Carrier: 45,
	},
	Battleship: {
		Infantry: 95, Mech: 90, Recon: 90, Tank: 80, MdTank: 55, Neotank: 50, MegaTank: 25,
		APC: 80, Artillery: 80, Rocket: 85, AntiAir: 85, Missile: 90, Piperunner: 80,
		Battleship: 50, Cruiser: 95, Lander: 95, Sub: 95, BlackBoat: 95, Carrier: 60,
	},
	Cruiser: {
		Cruiser: 25, Lander: 25, Sub: 90, BlackBoat: 25, Carrier: 5,
	},
	Sub: {
		Battleship: 55, Cruiser: 25, Lander: 95, Sub: 55, BlackBoat: 95, Carrier: 75,
	},
	Carrier: {
		BCopter: 115, TCopter: 115, Fighter: 100, Bomber: 100, Stealth: 100, BlackBomb: 120,
	},
}

var secondaryChart = chart{
	Infantry: {
		Infantry: 55, Mech: 45, Recon: 12, Tank: 5, MdTank: 1, Neotank: 1, MegaTank: 1,
		APC: 14, Artillery: 15, Rocket: 25, AntiAir: 5, Missile: 25, Piperunner: 5,
		BCopter: 7, TCopter: 30,
	},
	Mech: {
		Infantry: 65, Mech: 55, Recon: 18, Tank: 6, MdTank: 1, Neotank: 1, MegaTank: 1,
		APC: 20, Artillery: 32, Rocket: 35, AntiAir: 6, Missile: 35, Piperunner: 6,
		BCopter: 9, TCopter: 35,
	},
	Recon: {
		Infantry: 70, Mech: 65, Recon: 35, Tank: 6, MdTank: 1, Neotank: 1, MegaTank: 1,
		APC: 45, Artillery: 45, Rocket: 55, AntiAir: 4, Missile: 28, Piperunner: 6,
		BCopter: 10, TCopter: 35,
	},
	Tank: {
		Infantry: 75, Mech: 70, Recon: 40, Tank: 6, MdTank: 1, Neotank: 1, MegaTank: 1,
		APC: 45, Artillery: 45, Rocket: 55, AntiAir: 5, Missile: 30, Piperunner: 6,
		BCopter: 10, TCopter: 40,
	},
	MdTank: {
		Infantry: 105, Mech: 95, Recon: 45, Tank: 8, MdTank: 1, Neotank: 1, MegaTank: 1,
		APC: 45, Artillery: 45, Rocket: 55, AntiAir: 7, Missile: 35, Piperunner: 8,
		BCopter: 12, TCopter: 45,
	},
	Neotank: {
		Infantry: 125, Mech: 115, Recon: 65, Tank: 10, MdTank: 1, Neotank: 1, MegaTank: 1,
		APC: 65, Artillery: 65, Rocket: 75, AntiAir: 17, Missile: 55, Piperunner: 10,
		BCopter: 22, TCopter: 55,
	},
	MegaTank: {
		Infantry: 135, Mech: 125, Recon: 65, Tank: 10, MdTank: 1, Neotank: 1, MegaTank: 1,
		APC: 65, Artillery: 65, Rocket: 75, AntiAir: 17, Missile: 55, Piperunner: 10,
		BCopter: 22, TCopter: 55,
	},
	BCopter: {
		Infantry: 75, Mech: 75, Recon: 30, Tank: 6, MdTank: 1, Neotank: 1, MegaTank: 1,
		APC: 20, Artillery: 25, Rocket: 35, AntiAir: 6, Missile: 35, Piperunner: 6,
		BCopter: 65, TCopter: 95,
	},
	Cruiser: {
		BCopter: 115, TCopter: 115, Fighter: 55, Bomber: 65, Stealth: 100, BlackBomb: 120,
	},
}

// weapon picks the weapon an attacker uses against a defender: the primary
// weapon while it has ammo and can target the defender, otherwise the
// secondary. ok is false when neither weapon applies.
func weapon(attacker *Unit, defender UnitClass) (base int, usesAmmo bool, ok bool) {
	if attacker.Ammo > 0 {
		if dmg, found := primaryChart[attacker.Class][defender]; found {
			return dmg, true, true
		}
	}
	if dmg, found := secondaryChart[attacker.Class][defender]; found {
		return dmg, false, true
	}
	return 0, false, false
}

// BaseDamage reports the chart value the attacker would use against the
// defender class with its current ammo.
func BaseDamage(attacker *Unit, defender UnitClass) (int, bool) {
	base, _, ok := weapon(attacker, defender)
	return base, ok
}

// Damage computes the HP (0..100 scale) removed by one strike:
// floor((base + luck) * attackerDisplayHP * (200 - (100 + stars*defenderDisplayHP)) / 1000).
// Air defenders ignore terrain stars.
func Damage(base, luck, attackerHP, defenderHP int, defender UnitClass, terrain Terrain) int {
	stars := terrain.DefenseStars()
	if defender.Stats().Category == Air {
		stars = 0
	}
	defense := 200 - (100 + stars*DisplayHP(defenderHP))
	dmg := (base + luck) * DisplayHP(attackerHP) * defense / 1000
	if dmg < 0 {
		return 0
	}
	return dmg
}
