package data

import (
	"fmt"
	"math"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/navalrts/server/internal/ballistics"
	"github.com/navalrts/server/internal/geom"
)

// DefaultSpeedScale is applied to ship and torpedo speeds given in knots.
const DefaultSpeedScale = 5.2

// Knots converts knots to metres per second.
func Knots(kts float64) float64 { return kts / 1.94384 }

// TargetingMode selects how a turret picks targets.
type TargetingMode int

const (
	// Primary turrets fire only at the ship's fire target.
	Primary TargetingMode = iota
	// Secondary turrets prefer the fire target, then the nearest enemy.
	Secondary
)

func (m TargetingMode) String() string {
	if m == Secondary {
		return "secondary"
	}
	return "primary"
}

func (m *TargetingMode) UnmarshalYAML(n *yaml.Node) error {
	switch strings.ToLower(n.Value) {
	case "", "primary":
		*m = Primary
	case "secondary":
		*m = Secondary
	default:
		return fmt.Errorf("line %d: unknown targeting mode %q", n.Line, n.Value)
	}
	return nil
}

// Hull is the ship's bounding box in metres.
type Hull struct {
	Length    float64 `yaml:"length"`
	Width     float64 `yaml:"width"`
	Freeboard float64 `yaml:"freeboard"`
	Draft     float64 `yaml:"draft"`
}

// Bounds returns the hull box centred on the ship origin, waterline at z=0.
func (h Hull) Bounds() (geom.Vec3, geom.Vec3) {
	return geom.V3(-h.Length/2, -h.Width/2, -h.Draft), geom.V3(h.Length/2, h.Width/2, h.Freeboard)
}

// HullAxis locates a point along one hull axis. At most one field is set;
// none means centred. FromMin counts from the stern (or starboard side),
// FromMax from the bow (or port side).
type HullAxis struct {
	FromCenter *float64 `yaml:"from_center"`
	FromMin    *float64 `yaml:"from_min"`
	FromMax    *float64 `yaml:"from_max"`
}

// Offset returns the position on this axis relative to the hull centre.
func (a HullAxis) Offset(length float64) float64 {
	switch {
	case a.FromCenter != nil:
		return *a.FromCenter
	case a.FromMin != nil:
		return *a.FromMin - length/2
	case a.FromMax != nil:
		return length/2 - *a.FromMax
	}
	return 0
}

// Mirrored swaps sides across the centre line.
func (a HullAxis) Mirrored() HullAxis {
	switch {
	case a.FromCenter != nil:
		v := -*a.FromCenter
		return HullAxis{FromCenter: &v}
	case a.FromMin != nil:
		return HullAxis{FromMax: a.FromMin}
	case a.FromMax != nil:
		return HullAxis{FromMin: a.FromMax}
	}
	return a
}

func (a HullAxis) validate() error {
	n := 0
	for _, p := range []*float64{a.FromCenter, a.FromMin, a.FromMax} {
		if p != nil {
			n++
		}
	}
	if n > 1 {
		return fmt.Errorf("hull axis sets %d references, want at most one", n)
	}
	return nil
}

// TurretTemplate holds the ballistic and mechanical data shared by every
// turret of one battery.
type TurretTemplate struct {
	Name          string                `yaml:"-"`
	ReloadSecs    float64               `yaml:"reload_secs"`
	Damage        float64               `yaml:"damage"`
	MuzzleVel     float64               `yaml:"muzzle_vel"`
	MaxRange      float64               `yaml:"max_range"`
	Dispersion    ballistics.Dispersion `yaml:"dispersion"`
	HalfTurnSecs  float64               `yaml:"half_turn_secs"`
	BarrelCount   int                   `yaml:"barrel_count"`
	BarrelSpacing float64               `yaml:"barrel_spacing"`
	Targeting     TargetingMode         `yaml:"targeting"`
}

// TurnRate is the traverse speed in radians per second.
func (t *TurretTemplate) TurnRate() float64 {
	if t.HalfTurnSecs <= 0 {
		return math.Inf(1)
	}
	return math.Pi / t.HalfTurnSecs
}

// TurretPlacement is the YAML form of a turret instance.
type TurretPlacement struct {
	Template    string      `yaml:"template"`
	L           HullAxis    `yaml:"l"`
	W           HullAxis    `yaml:"w"`
	MovementArc *[2]float64 `yaml:"movement_arc"` // degrees, counter-clockwise
	FiringArc   *[2]float64 `yaml:"firing_arc"`
	DefaultDir  float64     `yaml:"default_dir"` // degrees
	Mirrored    bool        `yaml:"mirrored"`
}

// TurretInstance is one turret placed on a hull.
type TurretInstance struct {
	Template *TurretTemplate
	L, W     HullAxis
	// Offset from the ship origin in ship-local coordinates.
	Offset geom.Vec2
	// Movement is nil for turrets that rotate freely.
	Movement *geom.AngleRange
	// Firing is nil when the firing arc equals the movement arc.
	Firing     *geom.AngleRange
	DefaultDir float64 // radians, ship-relative
}

// FiringArc returns the arc the turret may fire in, or nil if unrestricted.
func (ti *TurretInstance) FiringArc() *geom.AngleRange {
	if ti.Firing != nil {
		return ti.Firing
	}
	return ti.Movement
}

// mirror reflects the turret across the ship's centre line.
func (ti TurretInstance) mirror(hull Hull) TurretInstance {
	out := ti
	out.W = ti.W.Mirrored()
	out.Offset = geom.V2(ti.L.Offset(hull.Length), out.W.Offset(hull.Width))
	if ti.Movement != nil {
		r := ti.Movement.ReflectX()
		out.Movement = &r
	}
	if ti.Firing != nil {
		r := ti.Firing.ReflectX()
		out.Firing = &r
	}
	out.DefaultDir = -ti.DefaultDir
	return out
}

// TorpedoSpec describes a torpedo battery. Starboard launches use the port
// arc mirrored.
type TorpedoSpec struct {
	ReloadSecs float64    `yaml:"reload_secs"`
	Volleys    int        `yaml:"volleys"`
	PerVolley  int        `yaml:"per_volley"`
	SpreadDeg  float64    `yaml:"spread_deg"`
	Damage     float64    `yaml:"damage"`
	SpeedKts   float64    `yaml:"speed_kts"`
	Range      float64    `yaml:"range"`
	PortArcDeg [2]float64 `yaml:"port_arc"`

	Speed   float64         `yaml:"-"` // m/s after scaling
	Spread  float64         `yaml:"-"` // radians
	PortArc geom.AngleRange `yaml:"-"`
}

func (t *TorpedoSpec) StarboardArc() geom.AngleRange { return t.PortArc.ReflectX() }

// SmokeSpec describes the smoke consumable. Charges of zero means unlimited.
type SmokeSpec struct {
	ActionSecs      float64 `yaml:"action_secs"`
	DissipationSecs float64 `yaml:"dissipation_secs"`
	Radius          float64 `yaml:"radius"`
	CooldownSecs    float64 `yaml:"cooldown_secs"`
	Charges         int     `yaml:"charges"`
}

// ShipTemplate holds static data for a ship class loaded from YAML.
type ShipTemplate struct {
	Name                  string  `yaml:"name"`
	Class                 string  `yaml:"class"`
	Hull                  Hull    `yaml:"hull"`
	MaxSpeedKts           float64 `yaml:"max_speed_kts"`
	AccelerationKts       float64 `yaml:"acceleration_kts"`
	TurningRate           float64 `yaml:"turning_rate"` // rad/s
	Health                float64 `yaml:"health"`
	Detection             float64 `yaml:"detection"`
	DetectionThroughSmoke float64 `yaml:"detection_through_smoke"`

	TurretTemplates map[string]*TurretTemplate `yaml:"turret_templates"`
	RawTurrets      []TurretPlacement          `yaml:"turrets"`
	Torpedoes       *TorpedoSpec               `yaml:"torpedoes"`
	Smoke           *SmokeSpec                 `yaml:"smoke"`

	MaxSpeed     float64          `yaml:"-"` // m/s
	Acceleration float64          `yaml:"-"` // m/s^2
	Turrets      []TurretInstance `yaml:"-"`
}

// MaxTurretRange is the longest range of any turret, or zero without guns.
func (s *ShipTemplate) MaxTurretRange() float64 {
	var r float64
	for _, t := range s.TurretTemplates {
		r = math.Max(r, t.MaxRange)
	}
	return r
}

// resolve converts the YAML form into simulation units and expands mirrored
// turrets.
func (s *ShipTemplate) resolve(speedScale float64) error {
	if s.Hull.Length <= 0 || s.Hull.Width <= 0 {
		return fmt.Errorf("hull dimensions must be positive")
	}
	s.MaxSpeed = Knots(s.MaxSpeedKts * speedScale)
	s.Acceleration = Knots(s.AccelerationKts * speedScale)
	if s.DetectionThroughSmoke == 0 {
		s.DetectionThroughSmoke = s.Detection
	}

	for name, tt := range s.TurretTemplates {
		tt.Name = name
		if tt.BarrelCount < 1 {
			return fmt.Errorf("turret template %s: barrel_count must be at least 1", name)
		}
		if tt.MuzzleVel <= 0 {
			return fmt.Errorf("turret template %s: muzzle_vel must be positive", name)
		}
	}

	s.Turrets = s.Turrets[:0]
	for i, raw := range s.RawTurrets {
		tt, ok := s.TurretTemplates[raw.Template]
		if !ok {
			return fmt.Errorf("turret %d: unknown template %q", i, raw.Template)
		}
		if err := raw.L.validate(); err != nil {
			return fmt.Errorf("turret %d: l: %w", i, err)
		}
		if err := raw.W.validate(); err != nil {
			return fmt.Errorf("turret %d: w: %w", i, err)
		}
		ti := TurretInstance{
			Template:   tt,
			L:          raw.L,
			W:          raw.W,
			Offset:     geom.V2(raw.L.Offset(s.Hull.Length), raw.W.Offset(s.Hull.Width)),
			DefaultDir: raw.DefaultDir * math.Pi / 180,
		}
		if raw.MovementArc != nil {
			r := geom.AngleRangeFromDegrees(raw.MovementArc[0], raw.MovementArc[1])
			ti.Movement = &r
		}
		if raw.FiringArc != nil {
			r := geom.AngleRangeFromDegrees(raw.FiringArc[0], raw.FiringArc[1])
			ti.Firing = &r
		}
		s.Turrets = append(s.Turrets, ti)
		if raw.Mirrored {
			s.Turrets = append(s.Turrets, ti.mirror(s.Hull))
		}
	}

	if t := s.Torpedoes; t != nil {
		if t.Volleys < 1 || t.PerVolley < 1 {
			return fmt.Errorf("torpedoes: volleys and per_volley must be at least 1")
		}
		t.Speed = Knots(t.SpeedKts * speedScale)
		t.Spread = t.SpreadDeg * math.Pi / 180
		t.PortArc = geom.AngleRangeFromDegrees(t.PortArcDeg[0], t.PortArcDeg[1])
	}
	if s.Smoke != nil && s.Smoke.Radius <= 0 {
		return fmt.Errorf("smoke: radius must be positive")
	}
	return nil
}

type shipListFile struct {
	SpeedScale float64         `yaml:"speed_scale"`
	Ships      []*ShipTemplate `yaml:"ships"`
}

// ShipTable holds all ship templates indexed by lower-cased name.
type ShipTable struct {
	templates map[string]*ShipTemplate
}

// LoadShipTable loads ship templates from a YAML file.
func LoadShipTable(path string) (*ShipTable, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read ship_list: %w", err)
	}
	t, err := ParseShipTable(data)
	if err != nil {
		return nil, fmt.Errorf("parse ship_list: %w", err)
	}
	return t, nil
}

// ParseShipTable decodes and validates a ship list document.
func ParseShipTable(data []byte) (*ShipTable, error) {
	var f shipListFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, err
	}
	scale := f.SpeedScale
	if scale == 0 {
		scale = DefaultSpeedScale
	}
	t := &ShipTable{templates: make(map[string]*ShipTemplate, len(f.Ships))}
	for _, s := range f.Ships {
		key := strings.ToLower(s.Name)
		if key == "" {
			return nil, fmt.Errorf("ship without name")
		}
		if _, dup := t.templates[key]; dup {
			return nil, fmt.Errorf("duplicate ship %q", s.Name)
		}
		if err := s.resolve(scale); err != nil {
			return nil, fmt.Errorf("ship %s: %w", s.Name, err)
		}
		t.templates[key] = s
	}
	return t, nil
}

// Get returns a ship template by name (case-insensitive), or nil if not found.
func (t *ShipTable) Get(name string) *ShipTemplate {
	return t.templates[strings.ToLower(name)]
}

// Names returns the template names in sorted order.
func (t *ShipTable) Names() []string {
	names := make([]string, 0, len(t.templates))
	for k := range t.templates {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// Count returns the number of loaded templates.
func (t *ShipTable) Count() int {
	return len(t.templates)
}
