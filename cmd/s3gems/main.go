package main

import "github.com/muhammad-st/bundler-source-aws-s3/pkg/cmd"

func main() {
	cmd.Execute()
}
