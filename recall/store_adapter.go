package recall

import (
	"context"
	"encoding/json"

	"github.com/meeplelab/boardrec/core"
	"github.com/meeplelab/boardrec/feature"
	"github.com/meeplelab/boardrec/matrix"
	"github.com/meeplelab/boardrec/similarity"
)

// DefaultKeyPrefix 是存储 key 的默认前缀。
const DefaultKeyPrefix = "boardrec"

// SimEntry 是物品相似度长表的一行。离线任务把对称矩阵压平成长表
// 落库，线上加载时再 pivot 回 similarity.Matrix。长表便于增量检查
// 与跨语言消费（每行自包含，任何 ETL 工具都能读）。
type SimEntry struct {
	GameA string  `json:"game_a"`
	GameB string  `json:"game_b"`
	Value float64 `json:"value"`
}

// StoreAdapter 是基于 core.Store 接口的召回数据适配器，
// 同时实现线上读取的四个 Provider 接口与离线任务的写入端。
//
// key 布局（{p} = KeyPrefix）：
//
//	{p}:ratings               评分全量导出 []core.Rating
//	{p}:artifacts:item_means  物品均值 map[gameID]float64
//	{p}:artifacts:item_sim    物品相似度长表 []SimEntry
//	{p}:catalog:stats         目录统计 []PopularityEntry
//	{p}:features:schema       特征 Schema（版本 + 分类法）
//	{p}:features:games        目录原始特征 []feature.Game
type StoreAdapter struct {
	store core.Store

	KeyPrefix string
}

// NewStoreAdapter 创建一个基于 core.Store 的召回数据适配器。
func NewStoreAdapter(s core.Store, keyPrefix string) *StoreAdapter {
	if keyPrefix == "" {
		keyPrefix = DefaultKeyPrefix
	}
	return &StoreAdapter{store: s, KeyPrefix: keyPrefix}
}

func (a *StoreAdapter) Name() string { return "store_adapter" }

func (a *StoreAdapter) keyRatings() string   { return a.KeyPrefix + ":ratings" }
func (a *StoreAdapter) keyItemMeans() string { return a.KeyPrefix + ":artifacts:item_means" }
func (a *StoreAdapter) keyItemSim() string   { return a.KeyPrefix + ":artifacts:item_sim" }
func (a *StoreAdapter) keyCatalog() string   { return a.KeyPrefix + ":catalog:stats" }
func (a *StoreAdapter) keySchema() string    { return a.KeyPrefix + ":features:schema" }
func (a *StoreAdapter) keyGames() string     { return a.KeyPrefix + ":features:games" }

// Ratings 读取评分全量导出。key 不存在视为空目录，不是错误。
func (a *StoreAdapter) Ratings(ctx context.Context) ([]core.Rating, error) {
	var out []core.Rating
	if err := a.load(ctx, a.keyRatings(), &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Utility 加载评分导出并构建效用矩阵，实现 UtilityProvider。
func (a *StoreAdapter) Utility(ctx context.Context) (*matrix.Utility, error) {
	ratings, err := a.Ratings(ctx)
	if err != nil {
		return nil, err
	}
	return matrix.Build(ratings)
}

// ItemSimilarity 加载长表并 pivot 回对称矩阵，实现 ArtifactProvider。
func (a *StoreAdapter) ItemSimilarity(ctx context.Context) (SimLookup, error) {
	var entries []SimEntry
	if err := a.load(ctx, a.keyItemSim(), &entries); err != nil {
		return nil, err
	}
	m := similarity.NewMatrix(similarity.AxisItem)
	for _, e := range entries {
		m.Set(e.GameA, e.GameB, e.Value)
	}
	return m, nil
}

// ItemMeans 加载物品均值表，实现 ArtifactProvider。
func (a *StoreAdapter) ItemMeans(ctx context.Context) (map[string]float64, error) {
	out := make(map[string]float64)
	if err := a.load(ctx, a.keyItemMeans(), &out); err != nil {
		return nil, err
	}
	return out, nil
}

// CatalogStats 加载目录统计，实现 CatalogProvider。
func (a *StoreAdapter) CatalogStats(ctx context.Context) ([]PopularityEntry, error) {
	var out []PopularityEntry
	if err := a.load(ctx, a.keyCatalog(), &out); err != nil {
		return nil, err
	}
	return out, nil
}

// schemaDoc 是 Schema 的序列化形态。
type schemaDoc struct {
	Version    string   `json:"version"`
	Categories []string `json:"categories"`
	Mechanics  []string `json:"mechanics"`
}

// FeatureTable 加载 Schema 与目录特征并重建特征表，实现 FeatureProvider。
func (a *StoreAdapter) FeatureTable(ctx context.Context) (*feature.Table, error) {
	var doc schemaDoc
	if err := a.load(ctx, a.keySchema(), &doc); err != nil {
		return nil, err
	}
	var games []feature.Game
	if err := a.load(ctx, a.keyGames(), &games); err != nil {
		return nil, err
	}
	schema := feature.NewSchema(doc.Version, doc.Categories, doc.Mechanics)
	return feature.NewTable(schema, games), nil
}

// SaveRatings 写入评分全量导出。
func (a *StoreAdapter) SaveRatings(ctx context.Context, ratings []core.Rating, ttl ...int) error {
	return a.save(ctx, a.keyRatings(), ratings, ttl...)
}

// SaveArtifacts 成批写入离线工件：相似度矩阵压平成长表，与均值表
// 一次 BatchSet 落库，避免线上读到半新半旧的工件组合。
func (a *StoreAdapter) SaveArtifacts(
	ctx context.Context,
	sim *similarity.Matrix,
	means map[string]float64,
	ttl ...int,
) error {
	entries := make([]SimEntry, 0, sim.Len())
	sim.Each(func(x, y string, v float64) {
		entries = append(entries, SimEntry{GameA: x, GameB: y, Value: v})
	})
	simData, err := json.Marshal(entries)
	if err != nil {
		return err
	}
	meansData, err := json.Marshal(means)
	if err != nil {
		return err
	}
	return a.store.BatchSet(ctx, map[string][]byte{
		a.keyItemSim():   simData,
		a.keyItemMeans(): meansData,
	}, ttl...)
}

// SaveCatalogStats 写入目录统计。
func (a *StoreAdapter) SaveCatalogStats(ctx context.Context, entries []PopularityEntry, ttl ...int) error {
	return a.save(ctx, a.keyCatalog(), entries, ttl...)
}

// SaveFeatures 写入 Schema 与目录特征。
func (a *StoreAdapter) SaveFeatures(ctx context.Context, schema *feature.Schema, games []feature.Game, ttl ...int) error {
	doc := schemaDoc{
		Version:    schema.Version,
		Categories: schema.Categories(),
		Mechanics:  schema.Mechanics(),
	}
	schemaData, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	gamesData, err := json.Marshal(games)
	if err != nil {
		return err
	}
	return a.store.BatchSet(ctx, map[string][]byte{
		a.keySchema(): schemaData,
		a.keyGames():  gamesData,
	}, ttl...)
}

// load 读取并反序列化一个 key；key 不存在时保持 out 原样（零值语义）。
func (a *StoreAdapter) load(ctx context.Context, key string, out any) error {
	data, err := a.store.Get(ctx, key)
	if err != nil {
		if core.IsStoreNotFound(err) {
			return nil
		}
		return err
	}
	return json.Unmarshal(data, out)
}

func (a *StoreAdapter) save(ctx context.Context, key string, v any, ttl ...int) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return a.store.Set(ctx, key, data, ttl...)
}
