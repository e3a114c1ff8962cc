package tui

import (
	"github.com/vovakirdan/tui-karol/internal/core"
	"github.com/vovakirdan/tui-karol/internal/robot"
	"github.com/vovakirdan/tui-karol/internal/world"
)

// cellWidth is the number of screen columns per ground field: marker,
// content and stack height.
const cellWidth = 3

var arrows = map[world.Direction]rune{
	world.North: '▲',
	world.East:  '▶',
	world.South: '▼',
	world.West:  '◀',
}

var paletteColors = map[world.Color]core.Color{
	world.Yellow: core.ColorBrightYellow,
	world.Red:    core.ColorBrightRed,
	world.Blue:   core.ColorBrightBlue,
	world.Green:  core.ColorBrightGreen,
	world.Black:  core.ColorBlack,
}

// worldViewSize returns the screen size DrawWorld needs for w, frame
// included.
func worldViewSize(w *world.World) (width, height int) {
	d := w.Dimensions()
	return d.X*cellWidth + 2, d.Z + 2
}

// DrawWorld draws a top-down view of Karol's world into area: north is up,
// x grows to the right. Fields that do not fit are clipped.
func DrawWorld(s *core.Screen, area core.Rect, k *robot.Karol) {
	s.DrawBox(area, core.ColorGray)
	inner := area.Inset(1)

	w := k.World()
	d := w.Dimensions()
	pos := k.Position()

	for z := 0; z < d.Z && z < inner.H; z++ {
		for x := 0; x < d.X && (x+1)*cellWidth <= inner.W; x++ {
			sx, sy := inner.X+x*cellWidth, inner.Y+z
			ground := world.Coord2d{X: x, Z: z}

			if c, ok := w.Marker(ground); ok {
				s.SetCell(sx, sy, core.Cell{Rune: '•', Color: paletteColors[c]})
			}

			height := w.BrickHeight(x, z)
			content := core.Cell{Rune: '·', Color: core.ColorGray}
			switch {
			case w.Field(ground.At(0)) == world.Wall:
				content = core.Cell{Rune: '█', Color: core.ColorWhite}
			case pos.X == x && pos.Z == z:
				content = core.Cell{Rune: arrows[k.Direction()], Color: core.ColorBrightWhite}
			case height > 0:
				c, _ := w.Field(ground.At(height - 1)).BrickColor()
				content = core.Cell{Rune: '■', Color: paletteColors[c]}
			}
			s.SetCell(sx+1, sy, content)

			if height > 0 {
				s.SetCell(sx+2, sy, core.Cell{Rune: heightRune(height), Color: core.ColorGray})
			}
		}
	}
}

// heightRune shows stack heights 1-9 as digits and taller stacks as '+'.
func heightRune(h int) rune {
	if h > 9 {
		return '+'
	}
	return rune('0' + h)
}

// RenderWorld returns the top-down view of Karol's world as plain text.
func RenderWorld(k *robot.Karol) string {
	w, h := worldViewSize(k.World())
	s := core.NewScreen(w, h)
	DrawWorld(s, s.Bounds(), k)
	return s.String()
}
