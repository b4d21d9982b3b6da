package core

import "fmt"

// Outcome 规则判定结果
type Outcome int

const (
	OutcomePass  Outcome = iota // 可通过/可生成
	OutcomeBlock                // 阻挡
)

// Effect 规则附带的副作用
type Effect int

const (
	EffectNone     Effect = iota
	EffectDetonate        // 引爆炸弹
	EffectKill            // 消灭敌人
	EffectBlowUp          // 炸毁障碍
	EffectDamage          // 伤害玩家
	EffectCollect         // 拾取出口钥匙
)

func (e Effect) String() string {
	switch e {
	case EffectNone:
		return "none"
	case EffectDetonate:
		return "detonate"
	case EffectKill:
		return "kill"
	case EffectBlowUp:
		return "blowup"
	case EffectDamage:
		return "damage"
	case EffectCollect:
		return "collect"
	}
	return "unknown"
}

// Rule 类别对规则：Self 为查询者，Other 为格子上的占位物
type Rule struct {
	Self    Category
	Other   Category
	Outcome Outcome
	Effect  Effect
	// OnSelf 副作用作用于查询者而不是占位物
	OnSelf bool
	// Halt 冲击波分支在此格终止
	Halt bool
}

func (r Rule) matches(self, other Category) bool {
	return (r.Self == CategoryAny || r.Self == self) && (r.Other == CategoryAny || r.Other == other)
}

// RuleTable 有序规则表，首条匹配生效
type RuleTable []Rule

// DefaultRules 默认碰撞规则表
var DefaultRules = RuleTable{
	{Self: CategoryAny, Other: CategoryBlock, Outcome: OutcomeBlock},
	{Self: CategoryPlayer, Other: CategoryBomb, Outcome: OutcomeBlock},
	{Self: CategoryEnemy, Other: CategoryBomb, Outcome: OutcomeBlock},
	{Self: CategoryShockWave, Other: CategoryBomb, Outcome: OutcomeBlock, Effect: EffectDetonate},
	{Self: CategoryShockWave, Other: CategoryEnemy, Outcome: OutcomeBlock, Effect: EffectKill, Halt: true},
	{Self: CategoryShockWave, Other: CategoryObstacle, Outcome: OutcomeBlock, Effect: EffectBlowUp, Halt: true},
	{Self: CategoryExplosion, Other: CategoryObstacle, Outcome: OutcomePass, Effect: EffectBlowUp},
	{Self: CategoryPlayer, Other: CategoryObstacle, Outcome: OutcomeBlock},
	{Self: CategoryEnemy, Other: CategoryObstacle, Outcome: OutcomeBlock},
	{Self: CategoryEnemy, Other: CategoryEnemy, Outcome: OutcomeBlock},
	{Self: CategoryEnemy, Other: CategoryReserved, Outcome: OutcomeBlock},
	{Self: CategoryShockWave, Other: CategoryPlayer, Outcome: OutcomePass, Effect: EffectDamage},
	{Self: CategoryExplosion, Other: CategoryPlayer, Outcome: OutcomePass, Effect: EffectDamage},
	{Self: CategoryExplosion, Other: CategoryEnemy, Outcome: OutcomePass, Effect: EffectKill},
	{Self: CategoryPlayer, Other: CategoryShockWave, Outcome: OutcomePass, Effect: EffectDamage, OnSelf: true},
	{Self: CategoryEnemy, Other: CategoryShockWave, Outcome: OutcomePass, Effect: EffectKill, OnSelf: true},
	{Self: CategoryPlayer, Other: CategoryExit, Outcome: OutcomePass, Effect: EffectCollect},
}

// Match 查找首条匹配规则
func (t RuleTable) Match(self, other Category) (Rule, bool) {
	for _, r := range t {
		if r.matches(self, other) {
			return r, true
		}
	}
	return Rule{}, false
}

// Validate 检查规则表
func (t RuleTable) Validate() error {
	for i, r := range t {
		if r.Self == CategoryAny && r.OnSelf && r.Effect != EffectNone {
			return fmt.Errorf("%w: 规则 %d 的副作用目标不确定", ErrInvalidConfig, i)
		}
	}
	return nil
}

// EffectHandler 执行规则副作用的协作者
type EffectHandler interface {
	Detonate(bomb Handle)
	Kill(enemy Handle)
	BlowUp(obstacle Handle, dir Direction)
	Damage(player Handle)
	Collect(exit, by Handle)
}

// Query 一次格子查询的发起方
type Query struct {
	Self      Handle
	Category  Category
	Direction Direction
}

// Result 查询结果
type Result struct {
	Passable bool
	Halt     bool
}

// CollisionHandler 按类别对规则判定格子是否可通过
type CollisionHandler struct {
	spatial Spatial
	effects EffectHandler
	rules   RuleTable
}

// NewCollisionHandler 创建碰撞判定器，rules 为空时使用默认规则表
func NewCollisionHandler(spatial Spatial, effects EffectHandler, rules RuleTable) (*CollisionHandler, error) {
	if spatial == nil {
		return nil, fmt.Errorf("碰撞判定器缺少空间查询: %w", ErrMissingCollaborator)
	}
	if effects == nil {
		return nil, fmt.Errorf("碰撞判定器缺少副作用执行者: %w", ErrMissingCollaborator)
	}
	if len(rules) == 0 {
		rules = DefaultRules
	}
	if err := rules.Validate(); err != nil {
		return nil, err
	}
	return &CollisionHandler{spatial: spatial, effects: effects, rules: rules}, nil
}

// Rules 当前规则表
func (c *CollisionHandler) Rules() RuleTable { return c.rules }

// CheckPosition 判定格子是否可通过，并立即执行副作用
func (c *CollisionHandler) CheckPosition(q Query, cell Cell) bool {
	return c.Resolve(q, cell).Passable
}

// Resolve 判定格子并执行副作用
func (c *CollisionHandler) Resolve(q Query, cell Cell) Result {
	return c.resolve(q, cell, true)
}

// Evaluate 只判定不执行副作用
func (c *CollisionHandler) Evaluate(q Query, cell Cell) Result {
	return c.resolve(q, cell, false)
}

func (c *CollisionHandler) resolve(q Query, cell Cell, apply bool) Result {
	if !c.spatial.Bounds().Contains(cell) {
		return Result{Passable: false}
	}

	res := Result{Passable: true}
	for _, o := range c.spatial.OccupantsAt(cell) {
		if !q.Self.IsZero() && (o.Handle == q.Self || o.Parent == q.Self) {
			continue
		}
		rule, ok := c.rules.Match(q.Category, o.Category)
		if !ok {
			continue
		}
		if apply {
			c.apply(rule, q, o)
		}
		if rule.Halt {
			res.Halt = true
		}
		if rule.Outcome == OutcomeBlock {
			res.Passable = false
			break
		}
	}
	return res
}

func (c *CollisionHandler) apply(rule Rule, q Query, o Occupant) {
	target := o.Handle
	if rule.OnSelf {
		target = q.Self
	}
	if target.IsZero() {
		return
	}
	switch rule.Effect {
	case EffectDetonate:
		c.effects.Detonate(target)
	case EffectKill:
		c.effects.Kill(target)
	case EffectBlowUp:
		c.effects.BlowUp(target, q.Direction)
	case EffectDamage:
		c.effects.Damage(target)
	case EffectCollect:
		c.effects.Collect(target, q.Self)
	}
}
