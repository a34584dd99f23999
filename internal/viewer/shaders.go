package viewer

const vertexShader = `#version 410 core

layout(location = 0) in vec3 aPosition;
layout(location = 1) in vec3 aNormal;
layout(location = 2) in vec2 aTexCoord;
layout(location = 3) in vec3 aColor;

uniform mat4 uMVP;
uniform mat4 uModel;

out vec3 vNormal;
out vec2 vTexCoord;
out vec3 vColor;

void main() {
    vNormal = mat3(uModel) * aNormal;
    vTexCoord = aTexCoord;
    vColor = aColor;
    gl_Position = uMVP * vec4(aPosition, 1.0);
}
`

const fragmentShader = `#version 410 core

in vec3 vNormal;
in vec2 vTexCoord;
in vec3 vColor;

uniform sampler2D uTexture;
uniform bool uUseTexture;
uniform vec3 uAmbient;
uniform vec3 uDiffuse;
uniform vec3 uLightDir;
uniform float uOpacity;
uniform bool uWireframe;

out vec4 FragColor;

void main() {
    if (uWireframe) {
        FragColor = vec4(0.9, 0.9, 0.9, 1.0);
        return;
    }

    vec3 base = uDiffuse * vColor;
    if (uUseTexture) {
        base *= texture(uTexture, vTexCoord).rgb;
    }

    // Missing normals arrive as zero; shade those faces unlit.
    float diffuse = 1.0;
    if (length(vNormal) > 0.0) {
        diffuse = abs(dot(normalize(vNormal), normalize(-uLightDir)));
    }

    vec3 color = base * (0.25 + 0.75 * diffuse) + uAmbient * 0.1;
    FragColor = vec4(color, uOpacity);
}
`
