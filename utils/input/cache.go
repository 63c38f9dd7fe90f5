package input

import (
	"errors"
	"fmt"

	badger "github.com/dgraph-io/badger/v4"
)

// Cache 输入数据的本地缓存
// 功能：将从数据库下载的文档按{db}.{col}存入本地KV库，下次运行优先从缓存加载
type Cache struct {
	db *badger.DB
}

// OpenCache 打开缓存
// 参数：dir-缓存目录
func OpenCache(dir string) (*Cache, error) {
	db, err := badger.Open(badger.DefaultOptions(dir).WithLogger(cacheLogger{}))
	if err != nil {
		return nil, fmt.Errorf("open input cache %s: %w", dir, err)
	}
	return &Cache{db: db}, nil
}

// Get 读取缓存，不存在时返回false
func (c *Cache) Get(key string) ([]byte, bool, error) {
	var value []byte
	err := c.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		value, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return value, true, nil
}

// Set 写入缓存
func (c *Cache) Set(key string, value []byte) error {
	return c.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), value)
	})
}

// Close 关闭缓存
func (c *Cache) Close() error {
	return c.db.Close()
}

// cacheLogger 将badger的日志转到input模块日志，并把info降为debug
type cacheLogger struct{}

func (cacheLogger) Errorf(f string, v ...interface{})   { log.Errorf(f, v...) }
func (cacheLogger) Warningf(f string, v ...interface{}) { log.Warnf(f, v...) }
func (cacheLogger) Infof(f string, v ...interface{})    { log.Debugf(f, v...) }
func (cacheLogger) Debugf(f string, v ...interface{})   { log.Tracef(f, v...) }
