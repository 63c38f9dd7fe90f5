package input

import (
	"context"
	"errors"
	"fmt"
	"os"

	"git.fiblab.net/general/common/v2/mongoutil"
	"github.com/samber/lo"
	"github.com/tsinghua-fib-lab/demandsim/utils/config"
	"github.com/tsinghua-fib-lab/demandsim/utils/randengine"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"gopkg.in/yaml.v2"
)

// Input 输入数据
// 功能：存储模拟所需的全部静态输入，加载完成后在运行期间只读
type Input struct {
	Zones      []Zone
	Households []Household // 抽样后的家庭
	Patterns   *PatternTable
	Journeys   []Journey
	Fleets     []Fleet
}

// NumPersons 人员总数
func (in *Input) NumPersons() int {
	return lo.SumBy(in.Households, func(h Household) int { return len(h.Persons) })
}

// Init 加载数据
// 功能：根据配置加载所有输入数据
// 参数：rc-运行时配置，cacheDir-缓存目录（为空则不使用缓存）
// 返回：加载完成的输入数据
// 算法说明：
// 1. 缓存检查：缓存目录有效时打开本地缓存
// 2. 数据库连接：如果配置了MongoDB则建立连接
// 3. 依次加载小区、家庭、活动模式、公共交通班次、共享汽车车队
// 4. 按抽样比例筛选家庭，检查人员ID唯一、住址小区存在
func Init(rc *config.RuntimeConfig, cacheDir string) (*Input, error) {
	var cache *Cache
	if preCheckCache(cacheDir) {
		var err error
		if cache, err = OpenCache(cacheDir); err != nil {
			return nil, err
		}
		defer cache.Close()
	}

	c := rc.All.Input
	var client *mongo.Client
	if c.URI != "" {
		client = mongoutil.NewClient(c.URI)
		defer client.Disconnect(context.Background())
	}

	res := &Input{}
	var err error
	if res.Zones, err = loadDocs[Zone](client, c.Zones, cache); err != nil {
		return nil, fmt.Errorf("load zones: %w", err)
	}
	households, err := loadDocs[Household](client, c.Population, cache)
	if err != nil {
		return nil, fmt.Errorf("load population: %w", err)
	}
	var patterns []Pattern
	if c.Patterns != nil {
		if patterns, err = loadDocs[Pattern](client, *c.Patterns, cache); err != nil {
			return nil, fmt.Errorf("load patterns: %w", err)
		}
	}
	if res.Patterns, err = NewPatternTable(patterns); err != nil {
		return nil, err
	}
	if c.Transit != nil {
		if res.Journeys, err = loadDocs[Journey](client, *c.Transit, cache); err != nil {
			return nil, fmt.Errorf("load transit: %w", err)
		}
	}
	if c.CarSharing != nil {
		if res.Fleets, err = loadDocs[Fleet](client, *c.CarSharing, cache); err != nil {
			return nil, fmt.Errorf("load car sharing: %w", err)
		}
	}

	res.Households = Sample(households, rc.C.Fraction, rc.C.Seed)
	if err := res.check(); err != nil {
		return nil, err
	}
	log.Infof("zones: %d, households: %d/%d, persons: %d, patterns: %d, journeys: %d, fleets: %d",
		len(res.Zones), len(res.Households), len(households), res.NumPersons(),
		res.Patterns.Len(), len(res.Journeys), len(res.Fleets),
	)
	return res, nil
}

// Sample 按比例抽样家庭
// 说明：每个家庭用以家庭ID为种子的独立随机数决定是否保留，结果与输入顺序无关
func Sample(households []Household, fraction float64, seed uint64) []Household {
	if fraction >= 1 {
		return households
	}
	return lo.Filter(households, func(h Household, _ int) bool {
		return randengine.ForAgent(seed, int64(h.ID)).Float64() < fraction
	})
}

// check 检查数据一致性
func (in *Input) check() error {
	zones := lo.SliceToMap(in.Zones, func(z Zone) (int32, struct{}) { return z.ID, struct{}{} })
	if len(zones) != len(in.Zones) {
		return errors.New("zones have duplicated ids")
	}
	persons := make(map[int32]struct{})
	for _, h := range in.Households {
		if _, ok := zones[h.HomeZone]; !ok {
			return fmt.Errorf("household %d: unknown home zone %d", h.ID, h.HomeZone)
		}
		cars := lo.SliceToMap(h.Cars, func(c Car) (int32, struct{}) { return c.ID, struct{}{} })
		for _, p := range h.Persons {
			if _, ok := persons[p.ID]; ok {
				return fmt.Errorf("persons have duplicated ids %d, please check data", p.ID)
			}
			persons[p.ID] = struct{}{}
			if p.PersonalCar != nil {
				if _, ok := cars[*p.PersonalCar]; !ok {
					return fmt.Errorf("person %d: personal car %d not owned by household %d", p.ID, *p.PersonalCar, h.ID)
				}
			}
			for _, d := range p.FixedDestinations {
				if _, ok := zones[d.Zone]; !ok {
					return fmt.Errorf("person %d: fixed destination in unknown zone %d", p.ID, d.Zone)
				}
			}
		}
	}
	for _, j := range in.Journeys {
		for _, s := range j.Stops {
			if _, ok := zones[s.Zone]; !ok {
				return fmt.Errorf("journey %d: stop in unknown zone %d", j.ID, s.Zone)
			}
		}
	}
	return nil
}

type docs[T any] struct {
	Docs []T `bson:"docs"`
}

// loadDocs 加载一个数据源的全部文档
// 算法说明：
// 1. 配置了文件：直接解析YAML列表
// 2. 缓存命中：从缓存反序列化
// 3. 否则从MongoDB按id升序下载，并写入缓存
func loadDocs[T any](client *mongo.Client, path config.InputPath, cache *Cache) ([]T, error) {
	if path.File != "" {
		file, err := os.ReadFile(path.File)
		if err != nil {
			return nil, err
		}
		var res []T
		if err := yaml.Unmarshal(file, &res); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path.File, err)
		}
		return res, nil
	}
	key := path.CacheKey()
	if cache != nil {
		value, ok, err := cache.Get(key)
		if err != nil {
			return nil, err
		}
		if ok {
			var d docs[T]
			if err := bson.Unmarshal(value, &d); err != nil {
				return nil, fmt.Errorf("decode cache %s: %w", key, err)
			}
			log.Infof("load %s from cache", key)
			return d.Docs, nil
		}
	}
	if path.OnlyCache {
		return nil, fmt.Errorf("%s not in cache", key)
	}
	if client == nil {
		return nil, fmt.Errorf("%s: no file and no mongodb uri", key)
	}
	log.Infof("start fetching from %s", key)
	ctx := context.Background()
	coll := mongoutil.GetMongoColl(client, path)
	cur, err := coll.Find(ctx, bson.D{}, options.Find().SetSort(bson.D{{Key: "id", Value: 1}}))
	if err != nil {
		return nil, err
	}
	var res []T
	if err := cur.All(ctx, &res); err != nil {
		return nil, err
	}
	log.Infof("finish fetching from %s: %d docs", key, len(res))
	if cache != nil {
		value, err := bson.Marshal(docs[T]{Docs: res})
		if err != nil {
			return nil, err
		}
		if err := cache.Set(key, value); err != nil {
			log.Warnf("failed to write cache %s: %v", key, err)
		}
	}
	return res, nil
}

// preCheckCache 预检查缓存目录
// 返回：true表示启用缓存，false表示禁用缓存
func preCheckCache(cacheDir string) bool {
	if cacheDir == "" {
		log.Info("disable input cache")
		return false
	}
	if stat, err := os.Stat(cacheDir); err == nil && stat.IsDir() {
		log.Infof("enable input cache at %s", cacheDir)
		return true
	}
	log.Errorf("disable input cache because invalid dir %s (not exist or file)", cacheDir)
	return false
}
