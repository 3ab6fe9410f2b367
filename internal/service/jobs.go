package service

import (
	"log"
	"sync"
)

// 后台任务不阻塞触发它的请求，也没有取消钩子；
// WaitGroup 让测试可以确定性地等待任务结算。
var backgroundJobs sync.WaitGroup

func goJob(name string, fn func()) {
	backgroundJobs.Add(1)
	go func() {
		defer backgroundJobs.Done()
		defer func() {
			if r := recover(); r != nil {
				log.Printf("后台任务 %s panic: %v", name, r)
			}
		}()
		fn()
	}()
}

// WaitBackgroundJobs 等待所有已派发的后台任务结束。
func WaitBackgroundJobs() {
	backgroundJobs.Wait()
}
