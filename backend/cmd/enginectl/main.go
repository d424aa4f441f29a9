/*
 * @Author: NEFU AB-IN
 * @Date: 2026-09-12 21:08:40
 * @FilePath: \adops-engine\backend\cmd\enginectl\main.go
 * @LastEditTime: 2026-09-14 22:41:19
 */
package main

import (
	"fmt"
	"os"
)

// main 运维命令行入口：手动采集、清理过期实验、查看创意得分。
func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
