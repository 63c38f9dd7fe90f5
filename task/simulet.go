package task

import "fmt"

const (
	SelfName = "demand" // 本程序在模拟任务集群中的名字
)

// prepare 准备阶段，每个时间片执行一次
// 功能：在时间片开始前完成所有跨分片的同步工作
// 算法说明：
// 1. 输出刷新：上一时间片缓冲的出行记录排序后写出
// 2. 人员管理器准备：发布上一时间片新增的拼车报价，记录统计快照
// 3. 更新时钟：时间片编号加一，当前时间移动到新时间片终点
// 4. 心跳日志：定期输出当前时间与统计
//
// 说明：在此之后分片才能看到上一时间片其他分片产生的共享状态
func (ctx *Context) prepare() error {
	for _, o := range ctx.outputs {
		if err := o.Flush(); err != nil {
			return fmt.Errorf("flush output: %w", err)
		}
	}
	ctx.personManager.Prepare()
	ctx.clock.Advance()

	if ctx.HeartbeatInterval > 0 && ctx.clock.Step%ctx.HeartbeatInterval == 0 {
		rt := ctx.personManager.Runtime()
		log.Infof(
			"STEP: %d(%v) trips: %d pending events: %d",
			ctx.clock.Step, ctx.clock.T, rt.NumCompletedTrips, ctx.personManager.Pending(),
		)
	}
	return nil
}

// update 更新阶段，每个时间片执行一次
// 功能：各分片并行处理早于时间片终点的全部事件
// 返回：处理的事件数
func (ctx *Context) update() int {
	if ctx.personManager.Idle(ctx.clock.T) {
		return 0
	}
	n := ctx.personManager.Update(ctx.clock.T)
	log.Debugf("step %d: %d events", ctx.clock.Step, n)
	return n
}

// done 是否应结束模拟：到达模拟区间终点、所有分片队列为空或收到关闭指令
func (ctx *Context) done() bool {
	return ctx.clock.Finished() || ctx.personManager.Pending() == 0 || ctx.closed.Load()
}

// Run 运行
// 功能：初始化后按时间片锁步推进，结束时通知所有监听器
// 返回：输出或监听器的错误
func (ctx *Context) Run() error {
	// 初始化
	ctx.Init()
	// init syncer
	if ctx.sidecar != nil {
		ctx.sidecar.Step(false)
	}
	events := 0
	for !ctx.done() {
		if err := ctx.prepare(); err != nil {
			return err
		}
		if ctx.sidecar != nil {
			// 通知准备阶段完成
			ctx.sidecar.NotifyStepReady()
		}
		events += ctx.update()
		if ctx.sidecar != nil {
			if ctx.sidecar.Step(ctx.done()) {
				break
			}
		}
	}
	// 最后一个时间片新增的报价与统计
	ctx.personManager.Prepare()
	log.Infof("engine complete at %v after %d steps, %d events", ctx.clock.T, ctx.clock.Step, events)
	if err := ctx.broadcaster.NotifyFinishSimulation(); err != nil {
		return err
	}
	ctx.Close()
	return nil
}
