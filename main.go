package main

import "github.com/thereayou/letschat/cmd/server"

func main() {
	server.NewServer().Run()
}
