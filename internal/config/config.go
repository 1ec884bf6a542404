package config

import "time"

// View resolution in logical units. Rendering scales to the terminal or
// window; terminal rows hold two logical rows each.
const (
	ViewWidth  = 120
	ViewHeight = 80
)

// Maximum terminal area used for rendering. Larger terminals get a centered
// viewport.
const (
	MaxTermWidth  = 240
	MaxTermHeight = 80
)

// Loop timing
const (
	TargetFPS        = 60
	Step             = time.Second / TargetFPS
	MaxFrameTime     = 100 * time.Millisecond
	MaxStepsPerFrame = 0
)

// Ship
const (
	ShipSpeed        = 70.0 // Units per second
	ShipRadius       = 3.0
	ShipY            = ViewHeight - 8
	FireCooldown     = 250 * time.Millisecond
	AutoFireInterval = 400 * time.Millisecond
)

// Projectiles
const (
	ProjectileSpeed    = 120.0
	ProjectileRadius   = 0.8
	ProjectileLifetime = 900 * time.Millisecond
)

// Invader formation
const (
	InvaderRows      = 3
	InvaderCols      = 8
	InvaderRadius    = 2.5
	InvaderSpacingX  = 12.0
	InvaderSpacingY  = 9.0
	InvaderTop       = 10.0
	InvaderSpeed     = 12.0 // Horizontal march, units per second
	InvaderDrop      = 3.0  // Descent on each edge bounce
	FormationRespawn = 2 * time.Second
)

// Scoring
const (
	ScoreInvader = 10
)

// Inactivity for remote sessions
const (
	InactivityWarnUser       = 90 * time.Second
	InactivityDisconnectUser = 120 * time.Second
)

// Shutdown
const (
	ShutdownDisplay = 10 * time.Second
)
