package game

// builtinWords is served when no word store is configured or it fails
var builtinWords = []Word{
	{Text: "Lighthouse", Category: "Places"},
	{Text: "Airport", Category: "Places"},
	{Text: "Library", Category: "Places"},
	{Text: "Submarine", Category: "Places"},
	{Text: "Casino", Category: "Places"},
	{Text: "Hospital", Category: "Places"},
	{Text: "Circus", Category: "Places"},
	{Text: "Volcano", Category: "Places"},
	{Text: "Pizza", Category: "Food"},
	{Text: "Sushi", Category: "Food"},
	{Text: "Pancake", Category: "Food"},
	{Text: "Popcorn", Category: "Food"},
	{Text: "Avocado", Category: "Food"},
	{Text: "Lasagna", Category: "Food"},
	{Text: "Penguin", Category: "Animals"},
	{Text: "Giraffe", Category: "Animals"},
	{Text: "Octopus", Category: "Animals"},
	{Text: "Kangaroo", Category: "Animals"},
	{Text: "Flamingo", Category: "Animals"},
	{Text: "Hedgehog", Category: "Animals"},
	{Text: "Dentist", Category: "Jobs"},
	{Text: "Astronaut", Category: "Jobs"},
	{Text: "Firefighter", Category: "Jobs"},
	{Text: "Magician", Category: "Jobs"},
	{Text: "Lifeguard", Category: "Jobs"},
	{Text: "Umbrella", Category: "Things"},
	{Text: "Toothbrush", Category: "Things"},
	{Text: "Telescope", Category: "Things"},
	{Text: "Skateboard", Category: "Things"},
	{Text: "Backpack", Category: "Things"},
	{Text: "Candle", Category: "Things"},
	{Text: "Wedding", Category: "Events"},
	{Text: "Birthday", Category: "Events"},
	{Text: "Marathon", Category: "Events"},
	{Text: "Concert", Category: "Events"},
	{Text: "Picnic", Category: "Events"},
}

// BuiltinWords returns a copy of the bundled word pack
func BuiltinWords() []Word {
	return append([]Word(nil), builtinWords...)
}

// PickWord draws a word from words, or from the bundled pack when words is empty
func PickWord(rnd Rand, words []Word) Word {
	if len(words) == 0 {
		words = builtinWords
	}
	return words[rnd.IntN(len(words))]
}
