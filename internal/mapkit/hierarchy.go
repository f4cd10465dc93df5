package mapkit

// ShowByName shows the first layer registered under name. Layers sharing a
// name after the first are unreachable here.
func (r *Root) ShowByName(name string) error {
	l, ok := r.LayerByName(name)
	if !ok {
		err := &SelectionError{Kind: "layer", Name: name}
		r.log.Warn("show layer", "err", err)
		return err
	}
	l.Show()
	return nil
}

// HideByName hides the first layer registered under name.
func (r *Root) HideByName(name string) error {
	l, ok := r.LayerByName(name)
	if !ok {
		err := &SelectionError{Kind: "layer", Name: name}
		r.log.Warn("hide layer", "err", err)
		return err
	}
	l.Hide()
	return nil
}

// ShowAll shows every rendered layer.
func (r *Root) ShowAll() {
	for _, l := range r.layers {
		l.Show()
	}
}

// HideAll hides every rendered layer.
func (r *Root) HideAll() {
	for _, l := range r.layers {
		l.Hide()
	}
}

// Select hides every layer and shows only name, as the panel card header
// button does. Nothing is hidden when name matches no layer.
func (r *Root) Select(name string) error {
	if _, ok := r.LayerByName(name); !ok {
		err := &SelectionError{Kind: "layer", Name: name}
		r.log.Warn("select layer", "err", err)
		return err
	}
	r.HideAll()
	return r.ShowByName(name)
}
