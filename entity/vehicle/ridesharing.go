package vehicle

import (
	"sync"

	"github.com/tsinghua-fib-lab/demandsim/clock"
	"github.com/tsinghua-fib-lab/demandsim/entity"
	"github.com/tsinghua-fib-lab/demandsim/utils/container"
)

// RideOffer 拼车报价：一次司机出行及其车辆
type RideOffer struct {
	container.IncrementalItemBase

	Driver      int32
	Trip        int64
	Car         *Car
	Origin      entity.ZoneID
	Destination entity.ZoneID
	Start       clock.Time // 司机出发时刻
	End         clock.Time // 司机计划到达时刻

	taken   bool
	revoked bool
}

// RideSharingOffers 拼车报价板
// 功能：跨分片共享的拼车报价集合
// 说明：
// 1. 新报价与撤回在时间片内登记，在Prepare（时间片边界）统一生效，因此同一时间片内所有分片看到相同的报价集合
// 2. 报价至多被接受一次；已撤回的报价不能被接受
type RideSharingOffers struct {
	mtx    sync.RWMutex
	offers *container.IncrementalArray[*RideOffer]
}

// NewRideSharingOffers 创建拼车报价板
func NewRideSharingOffers() *RideSharingOffers {
	return &RideSharingOffers{offers: container.NewIncrementalArray[*RideOffer]()}
}

// Add 登记新报价
func (b *RideSharingOffers) Add(o *RideOffer) {
	b.offers.Add(o)
}

// Revoke 撤回报价
// 返回：true表示撤回成功，false表示报价已被接受
func (b *RideSharingOffers) Revoke(o *RideOffer) bool {
	b.mtx.Lock()
	defer b.mtx.Unlock()
	b.offers.Remove(o)
	if o.taken {
		return false
	}
	o.revoked = true
	return true
}

// Matching 查找与给定出行匹配的最佳报价
// 参数：origin/destination-乘客出行的起终点小区，now-乘客出发时刻，maxLate-司机最多早于乘客出发多久，lead-乘客需早于司机到达的时长
// 返回：报价与是否找到
// 算法说明：
// 1. 起终点小区相同
// 2. 司机出发时刻在[now-maxLate, now]内，且到达时刻晚于now+lead
// 3. 未被接受、未被撤回
// 4. 取出发最晚者，相同时取出行ID最小者，保证结果与报价登记顺序无关
func (b *RideSharingOffers) Matching(
	origin, destination entity.ZoneID, now, maxLate, lead clock.Time,
) (*RideOffer, bool) {
	b.mtx.RLock()
	defer b.mtx.RUnlock()
	var best *RideOffer
	for _, o := range b.offers.Data() {
		if o.taken || o.revoked || o.Origin != origin || o.Destination != destination {
			continue
		}
		if o.Start > now || o.Start < now-maxLate || o.End <= now+lead {
			continue
		}
		if best == nil || o.Start > best.Start || (o.Start == best.Start && o.Trip < best.Trip) {
			best = o
		}
	}
	return best, best != nil
}

// Take 接受报价
// 返回：true表示成功，false表示已被他人接受或已撤回
func (b *RideSharingOffers) Take(o *RideOffer) bool {
	b.mtx.Lock()
	defer b.mtx.Unlock()
	if o.taken || o.revoked {
		return false
	}
	o.taken = true
	b.offers.Remove(o)
	return true
}

// Prepare 在时间片边界使登记的报价与撤回生效
func (b *RideSharingOffers) Prepare() {
	b.mtx.Lock()
	defer b.mtx.Unlock()
	b.offers.Prepare()
}

// Len 当前生效的报价数
func (b *RideSharingOffers) Len() int {
	b.mtx.RLock()
	defer b.mtx.RUnlock()
	return b.offers.Len()
}
