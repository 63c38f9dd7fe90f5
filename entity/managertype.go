package entity

// Manager依赖倒置

// entity/zone/manager.go的依赖倒置
type IZoneManager interface {
	// 输入Zone ID，查找Zone，如果不存在则panic
	Get(id ZoneID) IZone
	// 输入Zone ID，查找Zone，如果不存在则返回error
	GetOrError(id ZoneID) (IZone, error)
	// 全部小区（按ID升序）
	All() []IZone
}
