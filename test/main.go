package main

import (
	"fmt"

	"github.com/wradec/segmap/pkg/segmap"
	"github.com/wradec/segmap/pkg/weighttable"
	"k8s.io/apimachinery/pkg/labels"
	"k8s.io/apimachinery/pkg/selection"
)

var claims = []struct {
	name   string
	from   int64
	to     int64
	weight int64
	labels map[string]string
}{
	{name: "alpha", from: 1, to: 5, weight: 10, labels: map[string]string{"tenant": "a"}},
	{name: "beta", from: 4, to: 8, weight: 5, labels: map[string]string{"tenant": "b"}},
	{name: "gamma", from: -3, to: 2, weight: 2, labels: map[string]string{"tenant": "a"}},
}

func main() {
	s := segmap.New()
	if err := s.Add(1, 5, 10); err != nil {
		panic(err)
	}
	fmt.Println("after add(1,5,10):", s)

	if err := s.Add(4, 8, 5); err != nil {
		panic(err)
	}
	fmt.Println("after add(4,8,5):", s)

	if err := s.Set(3, 4, 5); err != nil {
		panic(err)
	}
	fmt.Println("after set(3,4,5):", s)

	iter := s.Iterate()
	for iter.Next() {
		fmt.Println("breakpoint", iter.Position(), iter.Value())
	}

	wt := weighttable.New()
	for _, c := range claims {
		if err := wt.Claim(c.name, c.from, c.to, c.weight, c.labels); err != nil {
			panic(err)
		}
	}
	fmt.Println("profile:", wt.ProfileString())

	ls, err := GetLabelSelector(map[string]string{"tenant": "a"})
	if err != nil {
		panic(err)
	}
	for _, e := range wt.GetByLabel(ls) {
		fmt.Println("entry by label", e.Name, e.From, e.To, e.Weight)
	}

	if err := wt.Release("alpha"); err != nil {
		panic(err)
	}
	fmt.Println("profile after release:", wt.ProfileString())
}

func GetLabelSelector(l map[string]string) (labels.Selector, error) {
	fullselector := labels.NewSelector()
	for k, v := range l {
		req, err := labels.NewRequirement(k, selection.Equals, []string{v})
		if err != nil {
			return nil, err
		}
		fullselector = fullselector.Add(*req)
	}
	return fullselector, nil
}
