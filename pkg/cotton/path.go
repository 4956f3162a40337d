package cotton

import (
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/neurodesk/cotton/pkg/config"
)

// DynamicComponent is the component name whose target is chosen at render
// time by its "is" attribute.
const DynamicComponent = "component"

const pathMemoSize = 400

type pathKey struct {
	name, is string
}

// PathResolver maps component names to template paths. Results are memoized;
// errors are not.
type PathResolver struct {
	dir   string
	ext   string
	snake bool
	memo  *lru.Cache[pathKey, string]
}

func NewPathResolver(cfg config.Config) *PathResolver {
	memo, err := lru.New[pathKey, string](pathMemoSize)
	if err != nil {
		panic(err)
	}
	return &PathResolver{
		dir:   strings.TrimSuffix(cfg.Dir, "/"),
		ext:   strings.TrimPrefix(cfg.Extension, "."),
		snake: cfg.SnakeCaseNames,
		memo:  memo,
	}
}

// Resolve returns the template path for name. For the dynamic component, is
// names the real target and must not be empty.
//
//	nav.item  -> cotton/nav/item.html
//	nav-item  -> cotton/nav_item.html (snake-case names)
func (p *PathResolver) Resolve(name, is string) (string, error) {
	key := pathKey{name, is}
	if path, ok := p.memo.Get(key); ok {
		return path, nil
	}
	target := name
	if name == DynamicComponent {
		if is == "" {
			return "", &IncompleteDynamicComponentError{Name: name}
		}
		target = is
	}
	target = strings.ReplaceAll(target, ".", "/")
	if p.snake {
		target = strings.ReplaceAll(target, "-", "_")
	}
	path := p.dir + "/" + target + "." + p.ext
	p.memo.Add(key, path)
	return path, nil
}

// Len reports how many resolutions are memoized.
func (p *PathResolver) Len() int { return p.memo.Len() }
