package feature

import (
	"context"
	"fmt"

	feastsdk "github.com/feast-dev/feast/sdk/go"
	feasttypes "github.com/feast-dev/feast/sdk/go/protos/feast/types"
)

// Feast 中桌游特征视图的默认特征引用。
// 由离线 ETL 物化到 Feast 在线存储，列名与 Schema 的布局一一对应。
var defaultGameFeatureRefs = []string{
	"games:min_players",
	"games:max_players",
	"games:min_playtime",
	"games:max_playtime",
	"games:difficulty",
	"games:categories",
	"games:mechanics",
}

// FeastProvider 从 Feast Feature Server 在线拉取桌游内容特征，
// 作为构建 Table 的可选数据源（另一条路径是直接从 Store 读离线工件）。
//
// 工程特征：
//   - 特征由 ETL 协作方物化，引擎侧只读
//   - 拉取结果交给 NewTable 构建不可变表，不做增量更新
type FeastProvider struct {
	client  *feastsdk.GrpcClient
	Project string

	// FeatureRefs 为空时使用 defaultGameFeatureRefs。
	FeatureRefs []string

	// EntityName 是 Feast 实体名，默认 "game_id"。
	EntityName string
}

// NewFeastProvider 连接 Feast Feature Server（gRPC，默认端口 6565）。
func NewFeastProvider(host string, port int, project string) (*FeastProvider, error) {
	if port == 0 {
		port = 6565
	}
	client, err := feastsdk.NewGrpcClient(host, port)
	if err != nil {
		return nil, fmt.Errorf("connect feast: %w", err)
	}
	return &FeastProvider{
		client:  client,
		Project: project,
	}, nil
}

// Load 拉取给定桌游的内容特征。Feast 中缺席的桌游被静默跳过
// （它们属于尚未物化的目录增量，不是错误）。
func (p *FeastProvider) Load(ctx context.Context, gameIDs []string) ([]Game, error) {
	if len(gameIDs) == 0 {
		return nil, nil
	}

	refs := p.FeatureRefs
	if len(refs) == 0 {
		refs = defaultGameFeatureRefs
	}
	entity := p.EntityName
	if entity == "" {
		entity = "game_id"
	}

	rows := make([]feastsdk.Row, len(gameIDs))
	for i, id := range gameIDs {
		rows[i] = feastsdk.Row{entity: feastsdk.StrVal(id)}
	}

	resp, err := p.client.GetOnlineFeatures(ctx, &feastsdk.OnlineFeaturesRequest{
		Features: refs,
		Entities: rows,
		Project:  p.Project,
	})
	if err != nil {
		return nil, fmt.Errorf("feast get online features: %w", err)
	}

	respRows := resp.Rows()
	games := make([]Game, 0, len(respRows))
	for i, row := range respRows {
		if i >= len(gameIDs) {
			break
		}
		g := Game{ID: gameIDs[i]}
		found := false
		for name, val := range row {
			if val == nil {
				continue
			}
			switch name {
			case "games:min_players", "min_players":
				g.MinPlayers = numericValue(val)
				found = true
			case "games:max_players", "max_players":
				g.MaxPlayers = numericValue(val)
				found = true
			case "games:min_playtime", "min_playtime":
				g.MinPlaytime = numericValue(val)
				found = true
			case "games:max_playtime", "max_playtime":
				g.MaxPlaytime = numericValue(val)
				found = true
			case "games:difficulty", "difficulty":
				g.Difficulty = numericValue(val)
				found = true
			case "games:categories", "categories":
				g.Categories = val.GetStringListVal().GetVal()
				found = true
			case "games:mechanics", "mechanics":
				g.Mechanics = val.GetStringListVal().GetVal()
				found = true
			}
		}
		if found {
			games = append(games, g)
		}
	}
	return games, nil
}

func (p *FeastProvider) Close() error {
	p.client = nil
	return nil
}

// numericValue 从 Feast 值类型提取 float64，兼容 double/float/int64/int32。
func numericValue(v *feasttypes.Value) float64 {
	switch val := v.GetVal().(type) {
	case *feasttypes.Value_DoubleVal:
		return val.DoubleVal
	case *feasttypes.Value_FloatVal:
		return float64(val.FloatVal)
	case *feasttypes.Value_Int64Val:
		return float64(val.Int64Val)
	case *feasttypes.Value_Int32Val:
		return float64(val.Int32Val)
	default:
		return 0
	}
}
