package main

import "github.com/nsxzhou1114/movie-review-api/cmd"

func main() {
	cmd.Execute()
}
