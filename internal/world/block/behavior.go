package block

// Behavior описывает физические свойства типа блока.
// Значения неизменяемы после сборки; используйте BehaviorBuilder.
type Behavior struct {
	hardness       float32
	toughness      float32
	friction       float32
	emission       float32
	lightInfluence uint32
	translucent    bool
	replaceable    bool
	occludable     bool
	air            bool
}

// DefaultBehavior возвращает свойства обычного твёрдого блока
func DefaultBehavior() Behavior {
	return Behavior{
		hardness:   1.0,
		toughness:  1.0,
		friction:   0.6,
		occludable: true,
	}
}

func (b Behavior) Hardness() float32 { return b.hardness }
func (b Behavior) Toughness() float32 { return b.toughness }
func (b Behavior) Friction() float32 { return b.friction }
func (b Behavior) Emission() float32 { return b.emission }

// LightInfluence возвращает, насколько блок ослабляет проходящий свет
func (b Behavior) LightInfluence() int32 { return int32(b.lightInfluence) }

func (b Behavior) Translucent() bool { return b.translucent }
func (b Behavior) Replaceable() bool { return b.replaceable }
func (b Behavior) Occludable() bool  { return b.occludable }
func (b Behavior) Air() bool         { return b.air }

// BehaviorBuilder собирает Behavior от значений по умолчанию
type BehaviorBuilder struct {
	b Behavior
}

// NewBehavior начинает сборку со значений DefaultBehavior
func NewBehavior() *BehaviorBuilder {
	return &BehaviorBuilder{b: DefaultBehavior()}
}

func (bb *BehaviorBuilder) Hardness(v float32) *BehaviorBuilder {
	bb.b.hardness = v
	return bb
}

func (bb *BehaviorBuilder) Toughness(v float32) *BehaviorBuilder {
	bb.b.toughness = v
	return bb
}

func (bb *BehaviorBuilder) Friction(v float32) *BehaviorBuilder {
	bb.b.friction = v
	return bb
}

func (bb *BehaviorBuilder) Emission(v float32) *BehaviorBuilder {
	bb.b.emission = v
	return bb
}

func (bb *BehaviorBuilder) LightInfluence(v uint32) *BehaviorBuilder {
	bb.b.lightInfluence = v
	return bb
}

func (bb *BehaviorBuilder) Translucent(v bool) *BehaviorBuilder {
	bb.b.translucent = v
	return bb
}

func (bb *BehaviorBuilder) Replaceable(v bool) *BehaviorBuilder {
	bb.b.replaceable = v
	return bb
}

func (bb *BehaviorBuilder) Occludable(v bool) *BehaviorBuilder {
	bb.b.occludable = v
	return bb
}

// Air помечает блок как пустоту: заменяемый, прозрачный, не перекрывающий соседей
func (bb *BehaviorBuilder) Air() *BehaviorBuilder {
	bb.b.air = true
	bb.b.replaceable = true
	bb.b.translucent = true
	bb.b.occludable = false
	bb.b.hardness = 0
	bb.b.toughness = 0
	return bb
}

// Build возвращает собранные свойства
func (bb *BehaviorBuilder) Build() Behavior {
	return bb.b
}
