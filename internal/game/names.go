package game

import (
	"fmt"
	"math/rand"
)

var nameAdjectives = []string{
	"Sneezy", "Giggly", "Wobbly", "Bouncy", "Silly", "Grumpy", "Sleepy", "Dizzy",
	"Fuzzy", "Sparkly", "Goofy", "Quirky", "Zany", "Wacky", "Bonkers", "Loopy",
	"Nutty", "Bizarre", "Peculiar", "Odd", "Weird", "Strange", "Funky", "Wild",
	"Crazy", "Mad", "Hyper", "Jumpy", "Jiggly", "Wiggly", "Squiggly", "Bubbly",
}

var nameNouns = []string{
	"Banana", "Pickle", "Waffle", "Muffin", "Cookie", "Donut", "Pancake", "Taco",
	"Burrito", "Sandwich", "Pretzel", "Bagel", "Cupcake", "Brownie", "Nugget",
	"Chicken", "Turkey", "Lobster", "Shrimp", "Octopus", "Penguin", "Flamingo",
	"Unicorn", "Dragon", "Wizard", "Ninja", "Pirate", "Robot", "Alien", "Monster",
	"Dinosaur", "Hamster", "Sloth", "Llama", "Potato", "Carrot", "Broccoli",
}

// randomName generates a guest username for joiners who don't pick one.
func randomName(rng *rand.Rand) string {
	adj := nameAdjectives[rng.Intn(len(nameAdjectives))]
	noun := nameNouns[rng.Intn(len(nameNouns))]
	return fmt.Sprintf("%s%s%d", adj, noun, rng.Intn(100)+1)
}
