package input

// 输入数据的文档结构，同时用于YAML文件与MongoDB文档

// Point 平面坐标
type Point struct {
	X float64 `yaml:"x" bson:"x"`
	Y float64 `yaml:"y" bson:"y"`
}

// Opportunity 小区内某类活动的机会地点
type Opportunity struct {
	Activity     string  `yaml:"activity" bson:"activity"`
	Location     Point   `yaml:"location" bson:"location"`
	Attractivity float64 `yaml:"attractivity" bson:"attractivity"`
}

// Zone 交通小区
type Zone struct {
	ID            int32         `yaml:"id" bson:"id"`
	Name          string        `yaml:"name,omitempty" bson:"name,omitempty"`
	Centroid      *Point        `yaml:"centroid,omitempty" bson:"centroid,omitempty"` // 为空时由边界计算
	Boundary      []Point       `yaml:"boundary,omitempty" bson:"boundary,omitempty"`
	ParkingCost   float64       `yaml:"parking_cost,omitempty" bson:"parking_cost,omitempty"` // 每小时停车费
	Opportunities []Opportunity `yaml:"opportunities,omitempty" bson:"opportunities,omitempty"`
	FreeFloating  []string      `yaml:"free_floating,omitempty" bson:"free_floating,omitempty"` // 覆盖该小区的共享汽车服务商
}

// Car 家庭私家车
type Car struct {
	ID    int32 `yaml:"id" bson:"id"`
	Seats int32 `yaml:"seats,omitempty" bson:"seats,omitempty"`
}

// FixedDestination 固定目的地
type FixedDestination struct {
	Activity string `yaml:"activity" bson:"activity"`
	Zone     int32  `yaml:"zone" bson:"zone"`
	Location Point  `yaml:"location" bson:"location"`
}

// Person 人员
type Person struct {
	ID                int32              `yaml:"id" bson:"id"`
	Age               int32              `yaml:"age,omitempty" bson:"age,omitempty"`
	Female            bool               `yaml:"female,omitempty" bson:"female,omitempty"`
	Employment        string             `yaml:"employment,omitempty" bson:"employment,omitempty"`
	Income            float64            `yaml:"income,omitempty" bson:"income,omitempty"`
	License           bool               `yaml:"license,omitempty" bson:"license,omitempty"`
	Bike              bool               `yaml:"bike,omitempty" bson:"bike,omitempty"`
	CommuterTicket    bool               `yaml:"commuter_ticket,omitempty" bson:"commuter_ticket,omitempty"`
	NoPublicTransport bool               `yaml:"no_public_transport,omitempty" bson:"no_public_transport,omitempty"`
	NoRideSharing     bool               `yaml:"no_ride_sharing,omitempty" bson:"no_ride_sharing,omitempty"`
	Memberships       []string           `yaml:"memberships,omitempty" bson:"memberships,omitempty"` // 共享出行服务商会员
	FixedDestinations []FixedDestination `yaml:"fixed_destinations,omitempty" bson:"fixed_destinations,omitempty"`
	Pattern           int32              `yaml:"pattern" bson:"pattern"`
	PersonalCar       *int32             `yaml:"personal_car,omitempty" bson:"personal_car,omitempty"` // 专属使用的家庭汽车
}

// Household 家庭
type Household struct {
	ID       int32    `yaml:"id" bson:"id"`
	HomeZone int32    `yaml:"home_zone" bson:"home_zone"`
	Home     Point    `yaml:"home" bson:"home"`
	Cars     []Car    `yaml:"cars,omitempty" bson:"cars,omitempty"`
	Persons  []Person `yaml:"persons" bson:"persons"`
}

// PatternActivity 周活动模式中的一项活动，时间单位为分钟（从周一00:00起）
type PatternActivity struct {
	Activity string `yaml:"activity" bson:"activity"`
	Start    int64  `yaml:"start" bson:"start"`
	Duration int64  `yaml:"duration" bson:"duration"`
}

// Pattern 周活动模式
type Pattern struct {
	ID         int32             `yaml:"id" bson:"id"`
	Activities []PatternActivity `yaml:"activities" bson:"activities"`
}

// StopTime 班次在某站的时刻（秒）
type StopTime struct {
	Zone      int32 `yaml:"zone" bson:"zone"`
	Arrival   int64 `yaml:"arrival" bson:"arrival"`
	Departure int64 `yaml:"departure" bson:"departure"`
}

// Journey 公共交通班次
type Journey struct {
	ID        int32      `yaml:"id" bson:"id"`
	Capacity  int32      `yaml:"capacity" bson:"capacity"`
	Delay     int64      `yaml:"delay,omitempty" bson:"delay,omitempty"` // 整个班次的延误（秒）
	Cancelled bool       `yaml:"cancelled,omitempty" bson:"cancelled,omitempty"`
	Stops     []StopTime `yaml:"stops" bson:"stops"`
}

// SharedCar 共享汽车的初始停放
type SharedCar struct {
	ID   int32 `yaml:"id" bson:"id"`
	Zone int32 `yaml:"zone" bson:"zone"`
}

// Fleet 某服务商的自由流动共享汽车车队
type Fleet struct {
	Provider string      `yaml:"provider" bson:"provider"`
	Cars     []SharedCar `yaml:"cars" bson:"cars"`
}
