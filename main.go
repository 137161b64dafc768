package main

import (
	"github.com/ziq497/PlatePals-NutritionChatbot/cmd"
)

func main() {
	cmd.Execute()
}
