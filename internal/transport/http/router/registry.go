package router

import (
	"sort"

	"github.com/gin-gonic/gin"
)

// Module 一个可挂载的接口模块
type Module interface{ MountAPI(*gin.RouterGroup) }

// 可选：实现该接口可控制挂载顺序（数值越小越先挂），默认 100
type prioritizer interface{ Priority() int }

// Mount 按优先级把模块挂到分组上。模块作为参数传入而不是全局注册，
// 方便测试里反复构建引擎。
func Mount(g *gin.RouterGroup, mods ...Module) {
	sorted := append([]Module(nil), mods...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return priorityOf(sorted[i]) < priorityOf(sorted[j])
	})
	for _, m := range sorted {
		m.MountAPI(g)
	}
}

func priorityOf(v any) int {
	if p, ok := v.(prioritizer); ok {
		return p.Priority()
	}
	return 100
}
