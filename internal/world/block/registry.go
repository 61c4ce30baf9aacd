package block

import (
	"fmt"

	"github.com/annel0/voxelcore/internal/identity"
	"github.com/annel0/voxelcore/internal/registry"
)

// BlockID представляет идентификатор блока: позицию в реестре
type BlockID uint16

// Константы ID блоков. Порядок совпадает с порядком записей в defaultEntries.
const (
	AirBlockID BlockID = iota
	StoneBlockID
	GrassBlockID
	WaterBlockID
	SandBlockID
	DirtBlockID
	CobblestoneBlockID
	BedrockBlockID
	GravelBlockID
	OakLogBlockID
	OakPlanksBlockID
	OakLeavesBlockID
	GlassBlockID
	TorchBlockID
	SnowBlockID
)

func defaultEntries() []registry.Entry[Behavior] {
	return []registry.Entry[Behavior]{
		{Path: "air", Value: NewBehavior().Air().Build()},
		{Path: "stone", Value: NewBehavior().Hardness(1.5).Toughness(6).Build()},
		{Path: "grass", Value: NewBehavior().Hardness(0.6).Toughness(0.6).Build()},
		{Path: "water", Value: NewBehavior().Hardness(100).Toughness(100).Friction(0.8).
			LightInfluence(2).Translucent(true).Replaceable(true).Occludable(false).Build()},
		{Path: "sand", Value: NewBehavior().Hardness(0.5).Toughness(0.5).Build()},
		{Path: "dirt", Value: NewBehavior().Hardness(0.5).Toughness(0.5).Build()},
		{Path: "cobblestone", Value: NewBehavior().Hardness(2).Toughness(6).Build()},
		{Path: "bedrock", Value: NewBehavior().Hardness(-1).Toughness(3600000).Build()},
		{Path: "gravel", Value: NewBehavior().Hardness(0.6).Toughness(0.6).Build()},
		{Path: "oak_log", Value: NewBehavior().Hardness(2).Toughness(2).Build()},
		{Path: "oak_planks", Value: NewBehavior().Hardness(2).Toughness(3).Build()},
		{Path: "oak_leaves", Value: NewBehavior().Hardness(0.2).Toughness(0.2).
			LightInfluence(1).Translucent(true).Occludable(false).Build()},
		{Path: "glass", Value: NewBehavior().Hardness(0.3).Toughness(0.3).
			Translucent(true).Occludable(false).Build()},
		{Path: "torch", Value: NewBehavior().Hardness(0).Toughness(0).Emission(14).
			Translucent(true).Replaceable(true).Occludable(false).Build()},
		{Path: "snow", Value: NewBehavior().Hardness(0.2).Toughness(0.2).Friction(0.98).Build()},
	}
}

var (
	blocks     = registry.MustBuild(defaultEntries()...)
	namespaces = registry.NewNamespaces[Behavior]().Add(identity.DefaultNamespace, blocks)
)

// Registry возвращает реестр встроенных блоков
func Registry() *registry.Registry[Behavior] {
	return blocks
}

// Namespaces возвращает реестры блоков по пространствам имён
func Namespaces() *registry.Namespaces[Behavior] {
	return namespaces
}

// Get возвращает поведение для указанного ID
func Get(id BlockID) (Behavior, bool) {
	return blocks.ByID(int(id))
}

// IsValidBlockID проверяет, является ли ID допустимым идентификатором блока
func IsValidBlockID(id BlockID) bool {
	return int(id) < blocks.Len()
}

// Lookup находит ID блока по идентификатору ресурса
func Lookup(id identity.ResourceID) (BlockID, error) {
	if id.Namespace() != identity.DefaultNamespace {
		return 0, fmt.Errorf("unknown block %s", id)
	}
	pos, ok := blocks.PathToID(id.Path())
	if !ok {
		return 0, fmt.Errorf("unknown block %s", id)
	}
	return BlockID(pos), nil
}

// Name возвращает путь блока или "unknown"
func (id BlockID) Name() string {
	if path, ok := blocks.IDToPath(int(id)); ok {
		return path
	}
	return "unknown"
}

func (id BlockID) String() string {
	return fmt.Sprintf("%s(%d)", id.Name(), uint16(id))
}
