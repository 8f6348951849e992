// Package captcha implements the human-challenge gate protecting login and
// registration: arithmetic challenges rendered to PNG, bound to a
// caller-scoped slot, and consumable exactly once.
package captcha

import (
	"fmt"
	"math/rand/v2"
	"strconv"
)

// Challenge is one issued puzzle: the text shown to a human, the rendered
// image, and the expected answer the caller binds to the requester's slot.
type Challenge struct {
	Question string
	Answer   string
	ImagePNG []byte
}

// Generate produces an addition or subtraction puzzle over two-digit
// operands. Subtraction operands are swapped when needed so the answer is
// never negative.
func Generate() (*Challenge, error) {
	num1 := 10 + rand.IntN(90)
	num2 := 10 + rand.IntN(90)

	var op byte
	var answer int
	if rand.IntN(2) == 0 {
		op = '+'
		answer = num1 + num2
	} else {
		op = '-'
		if num2 > num1 {
			num1, num2 = num2, num1
		}
		answer = num1 - num2
	}

	question := fmt.Sprintf("%d%c%d=?", num1, op, num2)

	img, err := renderPNG(question)
	if err != nil {
		return nil, err
	}

	return &Challenge{
		Question: question,
		Answer:   strconv.Itoa(answer),
		ImagePNG: img,
	}, nil
}
