package main

import "github.com/newsroom-kr/press-crawler/cmd"

func main() {
	cmd.Execute()
}
