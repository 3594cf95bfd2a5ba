package ecs

import "reflect"

// Plugin extends an App at build time: it registers schedules, systems,
// resources, or further plugins. Plugins are stored as type-keyed
// resources after build completes so systems can borrow their
// configuration (spec.md §4.6).
type Plugin interface {
	Build(app *App) error
}

// FinishingPlugin is a Plugin that also needs a hook after every
// plugin's Build has run to fixpoint — for wiring that depends on
// another plugin having already registered its resources.
type FinishingPlugin interface {
	Plugin
	Finish(app *App) error
}

// AddPlugin registers plugin. If the build fixpoint has already
// completed, it returns ErrPluginAlreadyBuilt. While a build is in
// flight, the plugin is queued for that build to pick up (spec.md §4.6:
// "newly added plugins during build are also built"). Otherwise it is
// built immediately, to fixpoint, with Finish run if it implements
// FinishingPlugin.
func (a *App) AddPlugin(plugin Plugin) error {
	a.mu.Lock()
	building := a.building
	built := a.pluginsBuilt
	a.mu.Unlock()

	if built && !building {
		return ErrPluginAlreadyBuilt
	}

	a.mu.Lock()
	a.pluginQueue = append(a.pluginQueue, plugin)
	a.mu.Unlock()

	if !building {
		return a.buildPlugins()
	}
	return nil
}

// buildPlugins drains the plugin queue to fixpoint: Build may itself
// call AddPlugin, enqueueing further plugins that this same call picks
// up. Once the queue is empty, Finish runs once per plugin that
// implements FinishingPlugin, then each plugin is stored as a
// type-keyed resource.
func (a *App) buildPlugins() error {
	a.mu.Lock()
	a.building = true
	a.mu.Unlock()
	defer func() {
		a.mu.Lock()
		a.building = false
		a.mu.Unlock()
	}()

	var built []Plugin
	for {
		a.mu.Lock()
		queue := a.pluginQueue
		a.pluginQueue = nil
		a.mu.Unlock()
		if len(queue) == 0 {
			break
		}
		for _, p := range queue {
			if err := p.Build(a); err != nil {
				return err
			}
			built = append(built, p)
		}
	}

	for _, p := range built {
		if fp, ok := p.(FinishingPlugin); ok {
			if err := fp.Finish(a); err != nil {
				return err
			}
		}
		storePluginResource(a.World(), p)
	}

	a.mu.Lock()
	a.pluginsBuilt = true
	a.mu.Unlock()
	return nil
}

// storePluginResource installs plugin into world's resource container
// keyed by its concrete type, so a later system can fetch its
// configuration via GetResource.
func storePluginResource(world *World, plugin Plugin) {
	world.resources.Set(pluginResourceKey(plugin), plugin)
}

func pluginResourceKey(plugin Plugin) string {
	return internTypeName(reflect.TypeOf(plugin))
}
