package config

// InputPath 指定输入数据来源的配置（MongoDB、文件系统）
// 功能：定义数据输入路径的配置结构，支持多种数据源
// 说明：文件优先；否则从MongoDB加载，并可借助本地缓存避免重复下载
type InputPath struct {
	DB        string `yaml:"db,omitempty"`         // 数据库名
	Col       string `yaml:"col,omitempty"`        // 集合名
	OnlyCache bool   `yaml:"only_cache,omitempty"` // 只从缓存中获取
	File      string `yaml:"file,omitempty"`       // YAML文件路径（优先级高于MongoDB）
}

// GetDb 获取数据库名
func (p InputPath) GetDb() string {
	return p.DB
}

// GetColl 获取集合名
func (p InputPath) GetColl() string {
	return p.Col
}

// CacheKey 获取缓存键
// 功能：返回该数据源在本地缓存中的键
// 返回：{数据库名}.{集合名}
func (p InputPath) CacheKey() string {
	return p.DB + "." + p.Col
}

// IsEmpty 是否未配置任何数据源
func (p InputPath) IsEmpty() bool {
	return p.File == "" && p.Col == ""
}

// Input 指定模拟器所有输入数据的配置项
// 功能：定义仿真系统的所有输入数据配置
// 说明：包含交通小区、人口、活动模式、公共交通时刻表、共享汽车车队
type Input struct {
	URI        string     `yaml:"uri,omitempty"`         // MongoDB连接字符串
	Zones      InputPath  `yaml:"zones"`                 // 交通小区
	Population InputPath  `yaml:"population"`            // 家庭与人员
	Patterns   *InputPath `yaml:"patterns,omitempty"`    // 周活动模式
	Transit    *InputPath `yaml:"transit,omitempty"`     // 公共交通班次
	CarSharing *InputPath `yaml:"car_sharing,omitempty"` // 自由流动共享汽车
}

// RideSharing 拼车配置
type RideSharing struct {
	Enabled        bool  `yaml:"enabled"`
	MaxMinutesLate int64 `yaml:"max_minutes_late,omitempty"` // 乘客可接受司机提前出发的最大分钟数
}

// PublicTransport 公共交通配置
type PublicTransport struct {
	MaxWait int64 `yaml:"max_wait,omitempty"` // 站点最长等待时间（秒），超过则重新规划
}

// Rescheduling 重排程配置
type Rescheduling struct {
	Strategy string `yaml:"strategy,omitempty"`  // none | shift | skip_to_home
	MaxDelay int64  `yaml:"max_delay,omitempty"` // skip_to_home下允许的最大延误（秒）
}

// ModeChoice 方式选择模型参数
type ModeChoice struct {
	Fixed    string             `yaml:"fixed,omitempty"` // 非空时总是选择该方式（若可用）
	Constant map[string]float64 `yaml:"constant,omitempty"`
	Time     float64            `yaml:"time,omitempty"` // 每分钟出行时间的效用系数
	Cost     float64            `yaml:"cost,omitempty"` // 每单位费用的效用系数
}

// Impedance 出行阻抗参数
type Impedance struct {
	Speed     map[string]float64 `yaml:"speed,omitempty"`       // 各方式速度（km/h）
	CostPerKm map[string]float64 `yaml:"cost_per_km,omitempty"` // 各方式每公里费用
	Detour    float64            `yaml:"detour,omitempty"`      // 直线距离到路网距离的绕行系数
}

// Control 模拟器控制配置
// 功能：定义仿真系统的核心控制参数
// 说明：包含模拟天数、并行度、抽样比例、随机种子与各行为模型的开关
type Control struct {
	Days              []int32           `yaml:"days"`                         // 模拟的天（0为周一）
	Threads           int               `yaml:"threads"`                      // 并行分片数
	Fraction          float64           `yaml:"fraction"`                     // 人口抽样比例
	Seed              uint64            `yaml:"seed"`                         // 全局随机种子
	Slice             int64             `yaml:"slice,omitempty"`              // 同步时间片长度（秒）
	Modes             []string          `yaml:"modes"`                        // 参与模拟的出行方式
	PassengerAsOption bool              `yaml:"passenger_as_option"`          // 是否允许选择搭车
	RideSharing       RideSharing       `yaml:"ride_sharing,omitempty"`       // 拼车
	PublicTransport   PublicTransport   `yaml:"public_transport,omitempty"`   // 公共交通
	Rescheduling      Rescheduling      `yaml:"rescheduling,omitempty"`       // 重排程
	DestinationChoice map[string]string `yaml:"destination_choice,omitempty"` // 活动类型 -> 目的地选择参数文件
	ModeChoice        ModeChoice        `yaml:"mode_choice,omitempty"`
	Impedance         Impedance         `yaml:"impedance,omitempty"`
}

// Output 输出配置，各项为空则不输出
type Output struct {
	TripsCSV string `yaml:"trips_csv,omitempty"` // 出行记录CSV
	SQLite   string `yaml:"sqlite,omitempty"`    // 出行记录SQLite数据库
	ODMatrix string `yaml:"od_matrix,omitempty"` // OD矩阵CSV
}

// Config YAML配置文件的根结构
// 功能：定义整个仿真系统的配置结构
// 说明：包含输入、控制、输出等所有配置项
type Config struct {
	Input   Input   `yaml:"input"`   // 输入
	Control Control `yaml:"control"` // 模拟过程控制
	Output  Output  `yaml:"output"`  // 输出
}
